package capture

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Backend is one way of grabbing the screen with ffmpeg.
type Backend string

const (
	GDIGrab      Backend = "gdigrab"
	DDAGrab      Backend = "ddagrab"
	X11Grab      Backend = "x11grab"
	AVFoundation Backend = "avfoundation"
)

// Region is a capture rectangle in screen pixels.
type Region struct {
	X, Y, W, H int
}

// ParseRegion parses "x,y,w,h". An empty string means full screen.
func ParseRegion(s string) (*Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("region %q: want x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return nil, fmt.Errorf("region %q: width and height must be positive", s)
	}
	return &Region{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}

// Command is a fully resolved process invocation.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Attempt is one entry of the fallback sequence. LogPath is empty when
// per-attempt logs are disabled.
type Attempt struct {
	Index     int
	Backend   Backend
	WithAudio bool
	Command   Command
	LogPath   string
}

func (a Attempt) String() string {
	return fmt.Sprintf("try%d %s/%s", a.Index, a.Backend, audioLabel(a.WithAudio))
}

// AttemptSpec holds everything needed to build the fallback sequence for one
// recording.
type AttemptSpec struct {
	FFmpegPath string
	OutputPath string
	Backend    Backend
	Alternate  Backend
	Display    string
	Region     *Region
	FPS        int
	CRF        int
	Preset     string
	Audio      *AudioInput
	DebugLogs  bool
}

// BuildAttempts returns the fallback order: configured backend with audio,
// configured backend video-only, alternate with audio, alternate video-only.
// Audio is dropped before the backend is switched.
func BuildAttempts(spec AttemptSpec) []Attempt {
	type variant struct {
		backend   Backend
		withAudio bool
	}

	backends := []Backend{spec.Backend}
	if spec.Alternate != "" && spec.Alternate != spec.Backend {
		backends = append(backends, spec.Alternate)
	}

	var variants []variant
	for _, b := range backends {
		if spec.Audio != nil {
			variants = append(variants, variant{b, true})
		}
		variants = append(variants, variant{b, false})
	}

	attempts := make([]Attempt, 0, len(variants))
	for i, v := range variants {
		a := Attempt{
			Index:     i + 1,
			Backend:   v.backend,
			WithAudio: v.withAudio,
		}
		var audio *AudioInput
		if v.withAudio {
			audio = spec.Audio
		}
		a.Command = Command{Name: spec.FFmpegPath, Args: buildArgs(spec, v.backend, audio)}
		if spec.DebugLogs {
			a.LogPath = LogPath(spec.OutputPath, a.Index, v.backend, v.withAudio)
		}
		attempts = append(attempts, a)
	}
	return attempts
}

// LogPath names the stderr log of one attempt:
// <base>.try<N>_<backend>_<audio|noaudio>.log
func LogPath(outputPath string, index int, backend Backend, withAudio bool) string {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return fmt.Sprintf("%s.try%d_%s_%s.log", base, index, backend, audioLabel(withAudio))
}

func buildArgs(spec AttemptSpec, backend Backend, audio *AudioInput) []string {
	args := []string{"-y"}
	switch {
	case backend == AVFoundation && audio != nil && audio.Kind == "avfoundation":
		// One avfoundation input carries both the screen and the audio device.
		args = append(args, "-f", "avfoundation", "-i", spec.Display+":"+audio.Device)
	default:
		args = append(args, videoArgs(backend, spec.Display, spec.Region)...)
		if audio != nil {
			args = append(args, audio.Args()...)
		}
	}
	args = append(args,
		"-r", strconv.Itoa(spec.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264",
		"-preset", spec.Preset,
		"-crf", strconv.Itoa(spec.CRF),
		"-movflags", "+faststart",
	)
	if audio != nil {
		args = append(args, "-c:a", "aac", "-b:a", "192k")
	}
	return append(args, spec.OutputPath)
}

func videoArgs(backend Backend, display string, region *Region) []string {
	switch backend {
	case DDAGrab:
		return []string{"-f", "ddagrab", "-i", "desktop"}
	case X11Grab:
		args := []string{"-f", "x11grab"}
		input := display
		if region != nil {
			args = append(args, "-video_size", fmt.Sprintf("%dx%d", region.W, region.H))
			input = fmt.Sprintf("%s+%d,%d", display, region.X, region.Y)
		}
		return append(args, "-i", input)
	case AVFoundation:
		return []string{"-f", "avfoundation", "-i", display}
	default:
		if region != nil {
			return []string{
				"-f", "gdigrab",
				"-offset_x", strconv.Itoa(region.X),
				"-offset_y", strconv.Itoa(region.Y),
				"-video_size", fmt.Sprintf("%dx%d", region.W, region.H),
				"-i", "desktop",
			}
		}
		return []string{"-f", "gdigrab", "-i", "desktop"}
	}
}

func audioLabel(withAudio bool) string {
	if withAudio {
		return "audio"
	}
	return "noaudio"
}
