package recorder

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/capture"
)

// Controller runs the presence-gated recording loop.
type Controller interface {
	// Run samples frames until ctx is done, a quit override arrives or the
	// frame source fails. Any active session is stopped before it returns.
	Run(ctx context.Context) error
}

// Override is a manual command from the operator.
type Override int

const (
	OverrideStart Override = iota + 1
	OverrideStop
	OverrideQuit
)

func (o Override) String() string {
	switch o {
	case OverrideStart:
		return "start"
	case OverrideStop:
		return "stop"
	case OverrideQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Session describes one recording from start to stop.
type Session struct {
	ID         string
	OutputPath string
	StartedAt  time.Time
	EndedAt    *time.Time
	Backend    capture.Backend
	WithAudio  bool
}

// Duration is zero until the session has ended.
func (s Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// CaptureStarter launches a capture process from a fallback sequence.
// *capture.Supervisor implements it.
type CaptureStarter interface {
	Start(ctx context.Context, attempts []capture.Attempt) (*capture.Handle, error)
}

// Planner builds the attempt sequence for an output file.
type Planner func(outputPath string) []capture.Attempt
