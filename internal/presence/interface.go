package presence

import (
	"context"
	"errors"
	"image"
)

// ErrBadFrame marks a frame that could not be decoded. The sampling loop
// treats it as an absent sample and keeps going.
var ErrBadFrame = errors.New("bad frame")

// Frame is one grayscale camera frame in row-major order.
type Frame struct {
	Pixels []uint8
	Width  int
	Height int
}

// Valid reports whether the pixel buffer matches the declared dimensions.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pixels) == f.Width*f.Height
}

// Image views the frame as an image.Gray without copying.
func (f Frame) Image() *image.Gray {
	return &image.Gray{
		Pix:    f.Pixels,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Detector answers whether the monitored subject is visible in a frame.
type Detector interface {
	Detect(frame Frame) bool
	Name() string
}

// FrameSource yields camera frames until closed.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}
