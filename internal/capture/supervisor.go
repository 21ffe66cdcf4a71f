package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

const stderrTail = 8 * 1024

// Supervisor launches capture attempts in order until one survives the
// grace window.
type Supervisor struct {
	starter     executor.Starter
	logger      logger.Logger
	grace       time.Duration
	stopTimeout time.Duration
}

// NewSupervisor creates a Supervisor. grace is how long a fresh process must
// stay alive to count as started; stopTimeout bounds a graceful stop.
func NewSupervisor(starter executor.Starter, log logger.Logger, grace, stopTimeout time.Duration) *Supervisor {
	return &Supervisor{
		starter:     starter,
		logger:      log,
		grace:       grace,
		stopTimeout: stopTimeout,
	}
}

// Start tries each attempt in order and returns the first live handle. When
// every attempt exits inside the grace window it fails with
// ErrCaptureUnavailable and leaves no process running.
func (s *Supervisor) Start(ctx context.Context, attempts []Attempt) (*Handle, error) {
	if len(attempts) == 0 {
		return nil, apperr.Wrap(apperr.ErrCaptureUnavailable, "capture", "no attempts configured", nil)
	}

	var failures []string
	for _, a := range attempts {
		h, err := s.try(ctx, a)
		if err == nil {
			s.logger.Info(ctx, "Capture started via %s (%s), pid %d", a.Backend, audioMode(a.WithAudio), h.Pid())
			if a.LogPath != "" {
				s.logger.Info(ctx, "Capture log: %s", a.LogPath)
			}
			return h, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		failures = append(failures, fmt.Sprintf("%s: %v", a, err))
		if a.LogPath != "" {
			s.logger.Warn(ctx, "Attempt %d (%s, %s) failed, see %s: %v", a.Index, a.Backend, audioLabel(a.WithAudio), a.LogPath, err)
		} else {
			s.logger.Warn(ctx, "Attempt %d (%s, %s) failed: %v", a.Index, a.Backend, audioLabel(a.WithAudio), err)
		}
	}

	return nil, apperr.Wrap(apperr.ErrCaptureUnavailable, "capture", strings.Join(failures, "; "), nil)
}

func (s *Supervisor) try(ctx context.Context, a Attempt) (*Handle, error) {
	tail := newTailBuffer(stderrTail)
	var stderr io.Writer = tail
	var logFile *os.File
	if a.LogPath != "" {
		f, err := os.Create(a.LogPath)
		if err != nil {
			s.logger.Warn(ctx, "Cannot create capture log %s: %v", a.LogPath, err)
		} else {
			logFile = f
			stderr = io.MultiWriter(tail, f)
		}
	}

	proc, err := s.starter.Start(a.Command.Name, a.Command.Args, executor.StartOptions{
		Stderr: stderr,
		Detach: true,
	})
	if err != nil {
		closeQuietly(logFile)
		return nil, err
	}

	h := &Handle{
		Attempt:     a,
		StartedAt:   time.Now(),
		proc:        proc,
		logFile:     logFile,
		stderr:      tail,
		stopTimeout: s.stopTimeout,
		logger:      s.logger,
	}

	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case <-proc.Done():
		closeQuietly(logFile)
		return nil, exitError(proc.Err(), tail.LastLines(3))
	case <-timer.C:
		return h, nil
	case <-ctx.Done():
		_ = h.Stop()
		return nil, ctx.Err()
	}
}

func exitError(err error, stderr string) error {
	msg := "exited during grace period"
	if err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, err)
	}
	if stderr != "" {
		msg += ": " + strings.ReplaceAll(stderr, "\n", " | ")
	}
	return errors.New(msg)
}

func audioMode(withAudio bool) string {
	if withAudio {
		return "with audio"
	}
	return "video-only"
}

func closeQuietly(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
