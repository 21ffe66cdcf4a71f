package presence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

// ErrSourceClosed is returned once the camera stream has ended.
var ErrSourceClosed = errors.New("frame source closed")

// frameReader slices a raw gray8 stream into fixed-size frames.
type frameReader struct {
	r      io.Reader
	width  int
	height int
}

func (fr frameReader) next() (Frame, error) {
	buf := make([]uint8, fr.width*fr.height)
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrSourceClosed
		}
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	return Frame{Pixels: buf, Width: fr.width, Height: fr.height}, nil
}

type ffmpegSource struct {
	proc      executor.Process
	reader    frameReader
	closeOnce sync.Once
}

// CameraArgs builds the ffmpeg arguments that stream the camera as raw
// grayscale frames of the configured size on stdout.
func CameraArgs(cam config.CameraConfig) []string {
	input := cam.Device
	if cam.Format == "dshow" {
		input = "video=" + cam.Device
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", cam.Format,
		"-framerate", strconv.Itoa(cam.FPS),
		"-i", input,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", cam.FPS, cam.Width, cam.Height),
		"-pix_fmt", "gray",
		"-f", "rawvideo",
		"-",
	}
}

// NewCameraSource starts ffmpeg reading the camera described by cam.
func NewCameraSource(starter executor.Starter, ffmpegPath string, cam config.CameraConfig, stderr io.Writer) (FrameSource, error) {
	proc, err := starter.Start(ffmpegPath, CameraArgs(cam), executor.StartOptions{
		Stderr:     stderr,
		PipeStdout: true,
		Detach:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("start camera: %w", err)
	}
	return &ffmpegSource{
		proc:   proc,
		reader: frameReader{r: proc.Stdout(), width: cam.Width, height: cam.Height},
	}, nil
}

func (s *ffmpegSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	f, err := s.reader.next()
	if errors.Is(err, ErrSourceClosed) {
		select {
		case <-s.proc.Done():
			if exitErr := s.proc.Err(); exitErr != nil {
				return Frame{}, fmt.Errorf("%w: camera exited: %v", ErrSourceClosed, exitErr)
			}
		default:
		}
	}
	return f, err
}

// Close stops the camera process. Safe to call more than once and from
// another goroutine to unblock Next.
func (s *ffmpegSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.proc.Kill()
		<-s.proc.Done()
		if out := s.proc.Stdout(); out != nil {
			out.Close()
		}
	})
	return err
}
