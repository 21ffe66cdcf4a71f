package capture

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

// Handle owns one live capture process. Only the Supervisor creates it and
// Stop releases it exactly once.
type Handle struct {
	Attempt   Attempt
	StartedAt time.Time

	proc        executor.Process
	logFile     *os.File
	stderr      *tailBuffer
	stopTimeout time.Duration
	logger      logger.Logger

	once    sync.Once
	stopErr error
}

func (h *Handle) Pid() int {
	return h.proc.Pid()
}

// Done is closed when the capture process exits for any reason.
func (h *Handle) Done() <-chan struct{} {
	return h.proc.Done()
}

// Alive reports whether the process is still running.
func (h *Handle) Alive() bool {
	select {
	case <-h.proc.Done():
		return false
	default:
		return true
	}
}

// Stderr returns the last lines ffmpeg wrote to stderr.
func (h *Handle) Stderr() string {
	return h.stderr.LastLines(5)
}

// Stop asks ffmpeg to finish the file by writing "q" to its stdin, waits up
// to the stop timeout and kills it otherwise. Later calls return the first
// result.
func (h *Handle) Stop() error {
	h.once.Do(func() {
		h.stopErr = h.stop()
		closeQuietly(h.logFile)
	})
	return h.stopErr
}

func (h *Handle) stop() error {
	if !h.Alive() {
		return nil
	}

	ctx := context.Background()
	if err := h.proc.WriteStdin("q"); err != nil {
		h.logger.Debug(ctx, "Capture pid %d did not accept stop key: %v", h.Pid(), err)
	}

	timer := time.NewTimer(h.stopTimeout)
	defer timer.Stop()

	select {
	case <-h.proc.Done():
		return nil
	case <-timer.C:
	}

	h.logger.Warn(ctx, "Capture pid %d ignored stop for %s, killing", h.Pid(), h.stopTimeout)
	if err := h.proc.Kill(); err != nil {
		return err
	}
	<-h.proc.Done()
	return nil
}
