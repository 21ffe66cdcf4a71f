package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/ledger"
)

const maxErrorLen = 500

type implWatcher struct {
	opts       Options
	extensions map[string]struct{}
	watcher    *fsnotify.Watcher
	sem        *semaphore
	wg         sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Start watches the directory and rescans it every poll interval so files
// missed by the event stream are still picked up.
func (w *implWatcher) Start(ctx context.Context) error {
	log := w.opts.Logger

	reset, err := w.opts.Ledger.ResetProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		log.Warn(ctx, "Requeued %d file(s) left processing by a previous run", reset)
	}

	log.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.opts.MaxConcurrent, w.opts.Dir)
	w.scan(ctx)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "Waiting for ongoing processing to complete...")
			w.wg.Wait()
			log.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if w.isCandidate(event.Name) {
				w.consider(ctx, event.Name)
			}

		case <-ticker.C:
			w.scan(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			log.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the underlying fsnotify watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		w.opts.Logger.Error(ctx, "Scan %s: %v", w.opts.Dir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.opts.Dir, entry.Name())
		if w.isCandidate(path) {
			w.consider(ctx, path)
		}
	}
}

func (w *implWatcher) isCandidate(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// consider starts a handler goroutine for path unless one is already running
// or the ledger says the file needs no more work.
func (w *implWatcher) consider(ctx context.Context, path string) {
	entry, err := w.opts.Ledger.Get(ctx, path)
	if err != nil {
		w.opts.Logger.Error(ctx, "Ledger lookup %s: %v", path, err)
		return
	}
	if entry != nil && entry.Status != ledger.StatusPending && entry.Status != ledger.StatusRetry {
		return
	}

	w.mu.Lock()
	if _, busy := w.inflight[path]; busy {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.forget(path)
		w.handle(ctx, path)
	}()
}

func (w *implWatcher) forget(path string) {
	w.mu.Lock()
	delete(w.inflight, path)
	w.mu.Unlock()
}

func (w *implWatcher) handle(ctx context.Context, path string) {
	log := w.opts.Logger

	stable, err := w.stable(ctx, path)
	if err != nil || !stable {
		return
	}

	if err := w.sem.acquire(ctx); err != nil {
		return
	}
	defer w.sem.release()

	claimed, err := w.opts.Ledger.Claim(ctx, path)
	if err != nil {
		log.Error(ctx, "Claim %s: %v", path, err)
		return
	}
	if !claimed {
		return
	}

	log.Info(ctx, "Processing %s", path)
	herr := w.opts.Handler(ctx, path)

	// The ledger must be updated even if the watcher is shutting down.
	bg := context.WithoutCancel(ctx)
	if herr != nil && ctx.Err() != nil {
		// Killed by shutdown, not by the file.
		if err := w.opts.Ledger.Release(bg, path); err != nil {
			log.Error(ctx, "Requeue %s: %v", path, err)
			return
		}
		log.Warn(ctx, "Requeued %s after shutdown interrupted it", path)
		return
	}

	code := exitCode(herr)
	status, err := w.opts.Ledger.Finish(bg, path, code, errorText(herr), apperr.Retryable(code), w.opts.MaxRetries)
	if err != nil {
		log.Error(ctx, "Record result for %s: %v", path, err)
		return
	}

	switch status {
	case ledger.StatusDone:
		log.Info(ctx, "Finished %s", path)
	case ledger.StatusRetry:
		log.Warn(ctx, "Will retry %s (exit %d): %v", path, code, herr)
	default:
		log.Error(ctx, "Failed %s (exit %d): %v", path, code, herr)
	}
}

// stable reports whether two size reads StabilityWait apart agree and the
// file is not empty.
func (w *implWatcher) stable(ctx context.Context, path string) (bool, error) {
	first, err := fileSize(path)
	if err != nil || first <= 0 {
		return false, err
	}

	timer := time.NewTimer(w.opts.StabilityWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
	}

	second, err := fileSize(path)
	if err != nil {
		return false, err
	}
	return second == first, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, nil
	}
	return info.Size(), nil
}

// exitCode extracts a process exit code from a handler error.
func exitCode(err error) int {
	if err == nil {
		return apperr.ExitOK
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) && coded.ExitCode() > 0 {
		return coded.ExitCode()
	}
	return apperr.ExitUnexpected
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if r := []rune(msg); len(r) > maxErrorLen {
		msg = string(r[len(r)-maxErrorLen:])
	}
	return msg
}
