package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

type implProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	done   chan struct{}
	err    error
}

// Start launches name with args and returns immediately. A goroutine reaps
// the process and closes Done when it exits.
func (e *implExecutor) Start(name string, args []string, opts StartOptions) (Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	cmd.Stderr = opts.Stderr
	if opts.Detach {
		detach(cmd)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe for '%s': %w", name, err)
	}

	var reader, writer *os.File
	if opts.PipeStdout {
		reader, writer, err = os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe for '%s': %w", name, err)
		}
		cmd.Stdout = writer
	}

	if err := cmd.Start(); err != nil {
		if reader != nil {
			reader.Close()
			writer.Close()
		}
		return nil, fmt.Errorf("start '%s': %w", name, err)
	}
	if writer != nil {
		// The child holds its own copy; closing ours lets the reader see EOF.
		writer.Close()
	}

	p := &implProcess{
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}
	if reader != nil {
		p.stdout = reader
	}

	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

func (p *implProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *implProcess) Done() <-chan struct{} {
	return p.done
}

func (p *implProcess) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *implProcess) WriteStdin(data string) error {
	if _, err := io.WriteString(p.stdin, data); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

func (p *implProcess) Stdout() io.ReadCloser {
	return p.stdout
}

func (p *implProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", p.Pid(), err)
	}
	return nil
}
