package executor

import (
	"context"
	"io"
)

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// Starter launches long-running external processes that are controlled
// through their lifecycle rather than awaited.
type Starter interface {
	Start(name string, args []string, opts StartOptions) (Process, error)
}

// StartOptions configures a started process.
type StartOptions struct {
	Dir    string
	Stderr io.Writer
	// PipeStdout exposes the process stdout through Process.Stdout.
	PipeStdout bool
	// Detach places the process in its own process group so terminal
	// interrupts reach only the parent.
	Detach bool
}

// Process is a handle on a started external process.
type Process interface {
	Pid() int
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err returns the exit error. Only meaningful after Done is closed.
	Err() error
	WriteStdin(data string) error
	Stdout() io.ReadCloser
	Kill() error
}
