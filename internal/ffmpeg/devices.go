package ffmpeg

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

// Lister enumerates capture devices known to the platform's capture layer.
type Lister interface {
	ListCaptureDevices(ctx context.Context) (video []string, audio []string, err error)
}

// commandRunner returns combined output even when the command exits non-zero;
// ffmpeg always fails after printing a device list.
type commandRunner func(ctx context.Context, name string, args ...string) string

type implLister struct {
	ffmpegPath string
	goos       string
	run        commandRunner
	glob       func(string) ([]string, error)
}

// NewLister returns a Lister that scrapes ffmpeg's device banner.
func NewLister(ffmpegPath string) Lister {
	return &implLister{
		ffmpegPath: ffmpegPath,
		goos:       runtime.GOOS,
		run:        combinedOutput,
		glob:       filepath.Glob,
	}
}

func (l *implLister) ListCaptureDevices(ctx context.Context) ([]string, []string, error) {
	switch l.goos {
	case "windows":
		out := l.run(ctx, l.ffmpegPath, "-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
		video, audio := ParseDShowDevices(out)
		return video, audio, nil
	case "darwin":
		out := l.run(ctx, l.ffmpegPath, "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "")
		video, audio := ParseAVFoundationDevices(out)
		return video, audio, nil
	default:
		video, err := l.glob("/dev/video*")
		if err != nil {
			return nil, nil, err
		}
		sort.Strings(video)
		return video, nil, nil
	}
}

var (
	reDShowVideo = regexp.MustCompile(`\[dshow .*?\]\s+"([^"]+)"\s*\(video\)`)
	reDShowAudio = regexp.MustCompile(`\[dshow .*?\]\s+"([^"]+)"\s*\(audio\)`)
	reAVFDevice  = regexp.MustCompile(`\]\s+\[(\d+)\]\s+(.+)$`)
)

// ParseDShowDevices extracts device names from `-list_devices true -f dshow`.
func ParseDShowDevices(out string) (video, audio []string) {
	for _, m := range reDShowVideo.FindAllStringSubmatch(out, -1) {
		video = append(video, m[1])
	}
	for _, m := range reDShowAudio.FindAllStringSubmatch(out, -1) {
		audio = append(audio, m[1])
	}
	return video, audio
}

// ParseAVFoundationDevices extracts "[index] name" entries, split by the
// video and audio section headers ffmpeg prints.
func ParseAVFoundationDevices(out string) (video, audio []string) {
	var section *[]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.Contains(line, "AVFoundation video devices"):
			section = &video
			continue
		case strings.Contains(line, "AVFoundation audio devices"):
			section = &audio
			continue
		}
		if section == nil {
			continue
		}
		if m := reAVFDevice.FindStringSubmatch(line); m != nil {
			*section = append(*section, strings.TrimSpace(m[2]))
		}
	}
	return video, audio
}

func combinedOutput(ctx context.Context, name string, args ...string) string {
	out, _ := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out)
}
