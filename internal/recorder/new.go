package recorder

import (
	"errors"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/gate"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/internal/presence"
)

// Options wires a Controller. Source, Detector, Gate, Capture, Plan and
// RecordingsDir are required.
type Options struct {
	Source         presence.FrameSource
	Detector       presence.Detector
	Gate           *gate.Gate
	Capture        CaptureStarter
	Plan           Planner
	RecordingsDir  string
	Overrides      <-chan Override
	OnSessionStart func(Session)
	OnSessionEnd   func(Session)
	Logger         logger.Logger
	Now            func() time.Time
}

// New creates a Controller. The controller owns Source and closes it when
// Run returns.
func New(opts Options) (Controller, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("recorder: frame source is required")
	case opts.Detector == nil:
		return nil, errors.New("recorder: detector is required")
	case opts.Gate == nil:
		return nil, errors.New("recorder: gate is required")
	case opts.Capture == nil || opts.Plan == nil:
		return nil, errors.New("recorder: capture starter and planner are required")
	case opts.RecordingsDir == "":
		return nil, errors.New("recorder: recordings dir is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &implController{
		source:         opts.Source,
		detector:       opts.Detector,
		gate:           opts.Gate,
		capture:        opts.Capture,
		plan:           opts.Plan,
		recordingsDir:  opts.RecordingsDir,
		overrides:      opts.Overrides,
		onSessionStart: opts.OnSessionStart,
		onSessionEnd:   opts.OnSessionEnd,
		logger:         log,
		now:            now,
	}, nil
}
