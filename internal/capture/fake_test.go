package capture

import (
	"errors"
	"io"
	"sync"

	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

// behaviour of a fake ffmpeg process
type behaviour struct {
	dieImmediately bool
	stderr         string
	exitOnQ        bool
}

type fakeProc struct {
	mu      sync.Mutex
	pid     int
	done    chan struct{}
	closed  bool
	stdin   []string
	killed  bool
	exitOnQ bool
}

func (p *fakeProc) exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
}

func (p *fakeProc) Pid() int              { return p.pid }
func (p *fakeProc) Done() <-chan struct{} { return p.done }
func (p *fakeProc) Stdout() io.ReadCloser { return nil }

func (p *fakeProc) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed {
		return errors.New("signal: killed")
	}
	return nil
}

func (p *fakeProc) WriteStdin(data string) error {
	p.mu.Lock()
	p.stdin = append(p.stdin, data)
	exit := p.exitOnQ && data == "q"
	p.mu.Unlock()
	if exit {
		p.exit()
	}
	return nil
}

func (p *fakeProc) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.exit()
	return nil
}

func (p *fakeProc) running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

type fakeStarter struct {
	mu         sync.Mutex
	behaviours []behaviour
	calls      []executor.StartOptions
	args       [][]string
	procs      []*fakeProc
	startErr   error
}

func (s *fakeStarter) Start(name string, args []string, opts executor.StartOptions) (executor.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}

	idx := len(s.procs)
	b := behaviour{exitOnQ: true}
	if idx < len(s.behaviours) {
		b = s.behaviours[idx]
	}

	p := &fakeProc{pid: 1000 + idx, done: make(chan struct{}), exitOnQ: b.exitOnQ}
	s.calls = append(s.calls, opts)
	s.args = append(s.args, args)
	s.procs = append(s.procs, p)

	if b.stderr != "" && opts.Stderr != nil {
		_, _ = io.WriteString(opts.Stderr, b.stderr)
	}
	if b.dieImmediately {
		p.exit()
	}
	return p, nil
}
