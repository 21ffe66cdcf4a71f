package capture

import "strings"

// AudioInput is the system-audio source mixed into a recording.
type AudioInput struct {
	Kind   string // dshow, wasapi, pulse, avfoundation
	Device string
}

// Args returns the ffmpeg input arguments for the audio source.
func (a AudioInput) Args() []string {
	switch a.Kind {
	case "dshow":
		return []string{"-f", "dshow", "-i", "audio=" + a.Device}
	case "pulse":
		return []string{"-f", "pulse", "-i", orDefault(a.Device)}
	case "avfoundation":
		return []string{"-f", "avfoundation", "-i", ":" + a.Device}
	default:
		return []string{"-f", "wasapi", "-i", orDefault(a.Device)}
	}
}

func (a AudioInput) String() string {
	return a.Kind + ":" + orDefault(a.Device)
}

// loopbackNames are matched case-insensitively against DirectShow audio
// devices; the first device containing one of them is used.
var loopbackNames = []string{
	"virtual-audio-capturer",
	"Stereo Mix",
	"What U Hear",
	"Loopback",
	"Speakers (Loopback)",
}

// AudioChoice carries the inputs to PickAudioInput.
type AudioChoice struct {
	GOOS         string
	Disabled     bool
	Backend      string
	Device       string
	DShowDevices []string
}

// PickAudioInput chooses the system-audio source. An explicit device always
// wins. On Windows a loopback-style DirectShow device is preferred, then the
// WASAPI default. Linux uses the PulseAudio default. macOS has no loopback
// device by default, so audio is only captured when configured.
func PickAudioInput(c AudioChoice) *AudioInput {
	if c.Disabled {
		return nil
	}
	if c.Device != "" {
		kind := c.Backend
		if kind == "" {
			kind = defaultAudioKind(c.GOOS)
		}
		return &AudioInput{Kind: kind, Device: c.Device}
	}

	switch c.GOOS {
	case "windows":
		for _, name := range c.DShowDevices {
			lower := strings.ToLower(name)
			for _, want := range loopbackNames {
				if strings.Contains(lower, strings.ToLower(want)) {
					return &AudioInput{Kind: "dshow", Device: name}
				}
			}
		}
		return &AudioInput{Kind: "wasapi", Device: "default"}
	case "darwin":
		return nil
	default:
		return &AudioInput{Kind: "pulse", Device: "default"}
	}
}

func defaultAudioKind(goos string) string {
	switch goos {
	case "windows":
		return "dshow"
	case "darwin":
		return "avfoundation"
	default:
		return "pulse"
	}
}

func orDefault(device string) string {
	if device == "" {
		return "default"
	}
	return device
}
