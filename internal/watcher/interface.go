package watcher

import "context"

// Watcher hands finished recordings to a worker.
type Watcher interface {
	// Start blocks until ctx is cancelled, then waits for running handlers.
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one stable file. An error carrying an ExitCode
// method (such as *exec.ExitError) is recorded with that code.
type EventHandler func(ctx context.Context, filePath string) error
