package watcher

import (
	"context"

	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

// ProcessCommand describes how the watcher invokes the worker.
type ProcessCommand struct {
	Executable string
	ConfigPath string
	OutDir     string
	SummaryDir string
}

// Args returns the worker arguments for one input file.
func (c ProcessCommand) Args(input string) []string {
	args := []string{"process"}
	if c.ConfigPath != "" {
		args = append(args, "--config", c.ConfigPath)
	}
	args = append(args, "--input", input, "--out-dir", c.OutDir)
	if c.SummaryDir != "" {
		args = append(args, "--summary-dir", c.SummaryDir)
	}
	return args
}

// NewProcessHandler runs the worker as a subprocess per file. The returned
// error wraps *exec.ExitError so the watcher can read the exit code.
func NewProcessHandler(cmd ProcessCommand, exec executor.Executor, log logger.Logger) EventHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return func(ctx context.Context, filePath string) error {
		out, err := exec.Execute(ctx, cmd.Executable, cmd.Args(filePath)...)
		if out != "" {
			log.Debug(ctx, "worker output for %s:\n%s", filePath, out)
		}
		return err
	}
}
