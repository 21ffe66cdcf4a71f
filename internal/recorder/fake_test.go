package recorder

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/capture"
	"github.com/nguyentantai21042004/awayrec/internal/presence"
	"github.com/nguyentantai21042004/awayrec/pkg/executor"
)

var (
	absentFrame  = presence.Frame{Pixels: []uint8{0, 0, 0, 0}, Width: 2, Height: 2}
	presentFrame = presence.Frame{Pixels: []uint8{1, 1, 1, 1}, Width: 2, Height: 2}
)

// scriptSource replays frames, then either fails with end or blocks until
// closed. When repeat is set the last frame is served forever.
type scriptSource struct {
	mu     sync.Mutex
	frames []presence.Frame
	errs   map[int]error
	end    error
	repeat bool
	pos    int
	closed chan struct{}
	once   sync.Once
}

func newScriptSource(frames []presence.Frame, end error) *scriptSource {
	return &scriptSource{frames: frames, end: end, errs: map[int]error{}, closed: make(chan struct{})}
}

func (s *scriptSource) Next(ctx context.Context) (presence.Frame, error) {
	s.mu.Lock()
	i := s.pos
	s.pos++
	s.mu.Unlock()

	if err, ok := s.errs[i]; ok {
		return presence.Frame{}, err
	}
	if i < len(s.frames) {
		return s.frames[i], nil
	}
	if s.repeat && len(s.frames) > 0 {
		time.Sleep(time.Millisecond)
		return s.frames[len(s.frames)-1], nil
	}
	if s.end != nil {
		return presence.Frame{}, s.end
	}
	select {
	case <-ctx.Done():
		return presence.Frame{}, ctx.Err()
	case <-s.closed:
		return presence.Frame{}, presence.ErrSourceClosed
	}
}

func (s *scriptSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *scriptSource) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// pixelDetector reports present when the first pixel is non-zero.
type pixelDetector struct{}

func (pixelDetector) Name() string { return "pixel" }

func (pixelDetector) Detect(f presence.Frame) bool { return f.Pixels[0] > 0 }

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

type fakeProc struct {
	mu     sync.Mutex
	done   chan struct{}
	closed bool
	stdin  []string
}

func (p *fakeProc) exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
}

func (p *fakeProc) Pid() int              { return 4242 }
func (p *fakeProc) Done() <-chan struct{} { return p.done }
func (p *fakeProc) Err() error            { return nil }
func (p *fakeProc) Stdout() io.ReadCloser { return nil }
func (p *fakeProc) Kill() error           { p.exit(); return nil }

func (p *fakeProc) WriteStdin(data string) error {
	p.mu.Lock()
	p.stdin = append(p.stdin, data)
	p.mu.Unlock()
	if data == "q" {
		p.exit()
	}
	return nil
}

func (p *fakeProc) stdinWrites() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stdin...)
}

// fakeStarter hands out fake ffmpeg processes; fail makes each one exit at once.
type fakeStarter struct {
	mu    sync.Mutex
	fail  bool
	procs []*fakeProc
}

func (s *fakeStarter) Start(name string, args []string, opts executor.StartOptions) (executor.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &fakeProc{done: make(chan struct{})}
	if s.fail {
		p.exit()
	}
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *fakeStarter) started() []*fakeProc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeProc(nil), s.procs...)
}

func singleAttempt(out string) []capture.Attempt {
	return []capture.Attempt{{
		Index:   1,
		Backend: capture.X11Grab,
		Command: capture.Command{Name: "ffmpeg", Args: []string{"-y", out}},
	}}
}

var errCameraGone = errors.New("camera unplugged")
