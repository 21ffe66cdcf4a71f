package presence

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

type countingDetector struct {
	calls   int
	verdict bool
	panics  bool
}

func (d *countingDetector) Name() string { return "fake" }

func (d *countingDetector) Detect(Frame) bool {
	d.calls++
	if d.panics {
		panic("detector blew up")
	}
	return d.verdict
}

func gradient(w, h int, ascending bool) Frame {
	px := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			if !ascending {
				v = 255 - v
			}
			px[y*w+x] = v
		}
	}
	return Frame{Pixels: px, Width: w, Height: h}
}

func TestFrameValid(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"matching buffer", Frame{Pixels: make([]uint8, 12), Width: 4, Height: 3}, true},
		{"short buffer", Frame{Pixels: make([]uint8, 11), Width: 4, Height: 3}, false},
		{"zero size", Frame{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeDetect(t *testing.T) {
	good := gradient(8, 8, true)

	if !SafeDetect(&countingDetector{verdict: true}, good) {
		t.Error("verdict should pass through for a valid frame")
	}

	d := &countingDetector{verdict: true}
	if SafeDetect(d, Frame{Pixels: []uint8{1, 2}, Width: 8, Height: 8}) {
		t.Error("malformed frame should count as absent")
	}
	if d.calls != 0 {
		t.Error("detector should not run on a malformed frame")
	}

	if SafeDetect(&countingDetector{verdict: true, panics: true}, good) {
		t.Error("detector panic should count as absent")
	}
}

func TestDeduperReusesVerdictForSimilarFrames(t *testing.T) {
	d := &countingDetector{verdict: true}
	dd := NewDeduper(d, 2, 3)
	frame := gradient(32, 24, true)

	for i := 0; i < 4; i++ {
		if !dd.Detect(frame) {
			t.Fatalf("frame %d: expected present", i)
		}
	}
	if d.calls != 1 {
		t.Errorf("detector calls = %d, want 1 (three reuses allowed)", d.calls)
	}

	dd.Detect(frame)
	if d.calls != 2 {
		t.Errorf("detector calls = %d, want 2 once reuse budget is spent", d.calls)
	}
}

func TestDeduperRunsOnChangedFrames(t *testing.T) {
	d := &countingDetector{verdict: false}
	dd := NewDeduper(d, 2, 10)

	dd.Detect(gradient(32, 24, true))
	dd.Detect(gradient(32, 24, false))
	dd.Detect(gradient(32, 24, true))

	if d.calls != 3 {
		t.Errorf("detector calls = %d, want 3 for alternating frames", d.calls)
	}
}

func TestDeduperRejectsMalformedFrame(t *testing.T) {
	d := &countingDetector{verdict: true}
	dd := NewDeduper(d, 2, 10)
	if dd.Detect(Frame{Width: 4, Height: 4}) {
		t.Error("malformed frame should be absent")
	}
	if d.calls != 0 {
		t.Error("detector should not run on a malformed frame")
	}
}

func TestFrameReader(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	fr := frameReader{r: bytes.NewReader(data), width: 2, height: 2}

	for i := 0; i < 2; i++ {
		f, err := fr.next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !f.Valid() {
			t.Fatalf("frame %d invalid", i)
		}
		if f.Pixels[0] != data[i*4] {
			t.Errorf("frame %d starts with %d, want %d", i, f.Pixels[0], data[i*4])
		}
	}

	if _, err := fr.next(); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("partial trailing frame should close the source, got %v", err)
	}
}

func TestCameraArgs(t *testing.T) {
	tests := []struct {
		name string
		cam  config.CameraConfig
		want []string
	}{
		{
			name: "v4l2",
			cam:  config.CameraConfig{Format: "v4l2", Device: "/dev/video0", Width: 320, Height: 240, FPS: 20},
			want: []string{"-hide_banner", "-loglevel", "error", "-f", "v4l2", "-framerate", "20", "-i", "/dev/video0",
				"-vf", "fps=20,scale=320:240", "-pix_fmt", "gray", "-f", "rawvideo", "-"},
		},
		{
			name: "dshow",
			cam:  config.CameraConfig{Format: "dshow", Device: "Integrated Camera", Width: 160, Height: 120, FPS: 15},
			want: []string{"-hide_banner", "-loglevel", "error", "-f", "dshow", "-framerate", "15", "-i", "video=Integrated Camera",
				"-vf", "fps=15,scale=160:120", "-pix_fmt", "gray", "-f", "rawvideo", "-"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CameraArgs(tt.cam); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CameraArgs() =\n%v\nwant\n%v", got, tt.want)
			}
		})
	}
}

func TestSelectMissingFaceCascade(t *testing.T) {
	cfg := config.PresenceConfig{FaceCascade: "does/not/exist", MinFaceSize: 40, MinQuality: 5}
	_, err := Select(context.Background(), cfg, logger.NewNop())
	if err == nil {
		t.Fatal("Select() should fail without a face cascade")
	}
	if !errors.Is(err, apperr.ErrConfigInvalid) {
		t.Errorf("expected config error, got %v", err)
	}
}
