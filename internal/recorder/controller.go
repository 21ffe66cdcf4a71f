package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/awayrec/internal/capture"
	"github.com/nguyentantai21042004/awayrec/internal/gate"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/internal/presence"
)

type implController struct {
	source         presence.FrameSource
	detector       presence.Detector
	gate           *gate.Gate
	capture        CaptureStarter
	plan           Planner
	recordingsDir  string
	overrides      <-chan Override
	onSessionStart func(Session)
	onSessionEnd   func(Session)
	logger         logger.Logger
	now            func() time.Time

	handle  *capture.Handle
	session *Session
}

type frameResult struct {
	frame presence.Frame
	err   error
}

func (c *implController) Run(ctx context.Context) error {
	readCtx, cancelRead := context.WithCancel(ctx)
	frames := make(chan frameResult)
	go c.readFrames(readCtx, frames)

	defer func() {
		cancelRead()
		if err := c.source.Close(); err != nil {
			c.logger.Debug(ctx, "Close frame source: %v", err)
		}
	}()

	c.logger.Info(ctx, "Monitoring presence with %s detector", c.detector.Name())
	overrides := c.overrides

	for {
		var captureDone <-chan struct{}
		if c.handle != nil {
			captureDone = c.handle.Done()
		}

		select {
		case <-ctx.Done():
			c.stopSession(ctx, "interrupted")
			return ctx.Err()

		case o, ok := <-overrides:
			if !ok {
				overrides = nil
				continue
			}
			if o == OverrideQuit {
				c.logger.Info(ctx, "Quit requested")
				c.stopSession(ctx, "quit")
				return nil
			}
			c.override(ctx, o)

		case r := <-frames:
			present := false
			if r.err != nil {
				if !errors.Is(r.err, presence.ErrBadFrame) {
					c.stopSession(ctx, "frame source failed")
					return fmt.Errorf("read frame: %w", r.err)
				}
				c.logger.Debug(ctx, "Bad frame treated as absent: %v", r.err)
			} else {
				present = presence.SafeDetect(c.detector, r.frame)
			}
			at := c.now()
			c.act(ctx, c.gate.Observe(gate.Sample{At: at, Present: present}), at)

		case <-captureDone:
			c.logger.Warn(ctx, "Capture exited unexpectedly: %s", c.handle.Stderr())
			c.stopSession(ctx, "capture exited")
			c.gate.Reset()
		}
	}
}

// readFrames runs on its own goroutine so overrides and cancellation are
// handled while a frame read blocks. Detection stays on the Run goroutine.
func (c *implController) readFrames(ctx context.Context, out chan<- frameResult) {
	for {
		f, err := c.source.Next(ctx)
		select {
		case out <- frameResult{frame: f, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil && !errors.Is(err, presence.ErrBadFrame) {
			return
		}
	}
}

func (c *implController) override(ctx context.Context, o Override) {
	at := c.now()
	switch o {
	case OverrideStart:
		d := c.gate.ForceStart()
		if d == gate.None {
			c.logger.Info(ctx, "Already recording")
			return
		}
		c.logger.Info(ctx, "Manual start")
		c.act(ctx, d, at)
	case OverrideStop:
		d := c.gate.ForceStop()
		if d == gate.None {
			c.logger.Info(ctx, "Not recording")
			return
		}
		c.logger.Info(ctx, "Manual stop")
		c.act(ctx, d, at)
	}
}

func (c *implController) act(ctx context.Context, d gate.Decision, at time.Time) {
	switch d {
	case gate.StartRequested:
		c.startSession(ctx, at)
	case gate.StopRequested:
		c.stopSession(ctx, "presence")
	}
}

func (c *implController) startSession(ctx context.Context, at time.Time) {
	if c.handle != nil {
		return
	}

	if err := os.MkdirAll(c.recordingsDir, 0o755); err != nil {
		c.logger.Error(ctx, "Cannot create recordings dir: %v", err)
		c.gate.Reset()
		return
	}
	out := outputPath(c.recordingsDir, at)

	h, err := c.capture.Start(ctx, c.plan(out))
	if err != nil {
		c.logger.Error(ctx, "Recording not started: %v", err)
		c.gate.Reset()
		return
	}

	c.handle = h
	c.session = &Session{
		ID:         uuid.NewString(),
		OutputPath: out,
		StartedAt:  at,
		Backend:    h.Attempt.Backend,
		WithAudio:  h.Attempt.WithAudio,
	}
	c.logger.Info(ctx, "Recording started: %s (session %s)", out, c.session.ID)
	if c.onSessionStart != nil {
		c.onSessionStart(*c.session)
	}
}

func (c *implController) stopSession(ctx context.Context, reason string) {
	if c.handle == nil {
		return
	}

	if err := c.handle.Stop(); err != nil {
		c.logger.Warn(ctx, "Stop capture: %v", err)
	}
	ended := c.now()
	s := *c.session
	s.EndedAt = &ended
	c.handle, c.session = nil, nil

	c.logger.Info(ctx, "Recording saved (%s): %s, %s", reason, s.OutputPath, s.Duration().Round(time.Second))
	if c.onSessionEnd != nil {
		c.onSessionEnd(s)
	}
}

// outputPath names a new file per session. A suffix keeps two sessions
// started in the same second apart.
func outputPath(dir string, at time.Time) string {
	base := filepath.Join(dir, "recording_"+at.Format("20060102_150405"))
	path := base + ".mp4"
	for i := 2; fileExists(path); i++ {
		path = fmt.Sprintf("%s_%d.mp4", base, i)
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
