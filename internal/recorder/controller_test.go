package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/capture"
	"github.com/nguyentantai21042004/awayrec/internal/gate"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
	"github.com/nguyentantai21042004/awayrec/internal/presence"
)

type harness struct {
	t         *testing.T
	source    *scriptSource
	starter   *fakeStarter
	gate      *gate.Gate
	overrides chan Override
	dir       string

	mu       sync.Mutex
	begun    []Session
	sessions []Session
}

func newHarness(t *testing.T, source *scriptSource) *harness {
	return &harness{
		t:         t,
		source:    source,
		starter:   &fakeStarter{},
		gate:      gate.New(200*time.Millisecond, 300*time.Millisecond),
		overrides: make(chan Override),
		dir:       filepath.Join(t.TempDir(), "recordings"),
	}
}

func (h *harness) controller() Controller {
	h.t.Helper()
	c, err := New(Options{
		Source:        h.source,
		Detector:      pixelDetector{},
		Gate:          h.gate,
		Capture:       capture.NewSupervisor(h.starter, logger.NewNop(), 5*time.Millisecond, 50*time.Millisecond),
		Plan:          singleAttempt,
		RecordingsDir: h.dir,
		Overrides:     h.overrides,
		OnSessionStart: func(s Session) {
			h.mu.Lock()
			h.begun = append(h.begun, s)
			h.mu.Unlock()
		},
		OnSessionEnd: func(s Session) {
			h.mu.Lock()
			h.sessions = append(h.sessions, s)
			h.mu.Unlock()
		},
		Logger: logger.NewNop(),
		Now:    newStepClock(50 * time.Millisecond).Now,
	})
	if err != nil {
		h.t.Fatalf("New() error = %v", err)
	}
	return c
}

func (h *harness) ended() []Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Session(nil), h.sessions...)
}

func (h *harness) started() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.begun)
}

func (h *harness) run(ctx context.Context) <-chan error {
	c := h.controller()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return done
}

func (h *harness) send(o Override) {
	h.t.Helper()
	select {
	case h.overrides <- o:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("override %s not consumed", o)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func frames(n int, f presence.Frame) []presence.Frame {
	out := make([]presence.Frame, n)
	for i := range out {
		out[i] = f
	}
	return out
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New() should reject empty options")
	}
}

func TestAwayThenBackRecordsOneSession(t *testing.T) {
	script := append(frames(10, absentFrame), frames(20, presentFrame)...)
	h := newHarness(t, newScriptSource(script, errCameraGone))

	err := waitRun(t, h.run(context.Background()))
	if !errors.Is(err, errCameraGone) {
		t.Fatalf("Run() error = %v, want camera error", err)
	}

	sessions := h.ended()
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if s.ID == "" || s.EndedAt == nil || s.Duration() <= 0 {
		t.Errorf("session not finalized: %+v", s)
	}
	if filepath.Dir(s.OutputPath) != h.dir || !strings.HasPrefix(filepath.Base(s.OutputPath), "recording_20240101_") {
		t.Errorf("output path = %q", s.OutputPath)
	}
	if s.Backend != capture.X11Grab {
		t.Errorf("backend = %q", s.Backend)
	}

	procs := h.starter.started()
	if len(procs) != 1 {
		t.Fatalf("started %d captures, want 1", len(procs))
	}
	if got := procs[0].stdinWrites(); !reflect.DeepEqual(got, []string{"q"}) {
		t.Errorf("stdin writes = %v, want [q]", got)
	}
	if h.gate.Recording() {
		t.Error("gate should be idle after the user returned")
	}
	if !h.source.isClosed() {
		t.Error("frame source should be closed when Run returns")
	}
}

func TestFlickerDoesNotStart(t *testing.T) {
	var script []presence.Frame
	for i := 0; i < 10; i++ {
		script = append(script, absentFrame, absentFrame, presentFrame)
	}
	h := newHarness(t, newScriptSource(script, errCameraGone))

	if err := waitRun(t, h.run(context.Background())); !errors.Is(err, errCameraGone) {
		t.Fatalf("Run() error = %v", err)
	}
	if n := len(h.starter.started()); n != 0 {
		t.Errorf("started %d captures, want 0", n)
	}
}

func TestCaptureFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t, newScriptSource(frames(20, absentFrame), errCameraGone))
	h.starter.fail = true

	if err := waitRun(t, h.run(context.Background())); !errors.Is(err, errCameraGone) {
		t.Fatalf("Run() error = %v", err)
	}

	if n := len(h.starter.started()); n < 2 {
		t.Errorf("started %d captures, want the loop to re-arm and retry", n)
	}
	if len(h.ended()) != 0 {
		t.Error("no session should be recorded when capture never starts")
	}
	if h.gate.Recording() {
		t.Error("gate should be idle after a failed start")
	}
}

func TestBadFramesCountAsAbsent(t *testing.T) {
	src := newScriptSource(frames(12, presentFrame), nil)
	for i := 0; i < 8; i++ {
		src.errs[i] = presence.ErrBadFrame
	}
	h := newHarness(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	waitFor(t, "session start", func() bool { return h.started() == 1 })
	cancel()

	if err := waitRun(t, done); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	if len(h.ended()) != 1 {
		t.Errorf("got %d sessions, want 1", len(h.ended()))
	}
}

func TestInterruptStopsActiveSession(t *testing.T) {
	src := newScriptSource(frames(1, absentFrame), nil)
	src.repeat = true
	h := newHarness(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	waitFor(t, "session start", func() bool { return h.started() == 1 })
	cancel()

	if err := waitRun(t, done); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	p := h.starter.started()[0]
	select {
	case <-p.Done():
	default:
		t.Fatal("capture process still running after Run returned")
	}
	if len(h.ended()) != 1 {
		t.Errorf("got %d sessions, want 1", len(h.ended()))
	}
}

func TestManualOverrides(t *testing.T) {
	h := newHarness(t, newScriptSource(nil, nil))
	done := h.run(context.Background())

	h.send(OverrideStart)
	waitFor(t, "session start", func() bool { return h.started() == 1 })
	h.send(OverrideStart)
	h.send(OverrideStop)
	waitFor(t, "session end", func() bool { return len(h.ended()) == 1 })
	h.send(OverrideStop)
	h.send(OverrideQuit)

	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v, want nil on quit", err)
	}
	if n := len(h.starter.started()); n != 1 {
		t.Errorf("started %d captures, want 1", n)
	}
	if len(h.ended()) != 1 {
		t.Errorf("got %d sessions, want 1", len(h.ended()))
	}
}

func TestQuitStopsActiveSession(t *testing.T) {
	h := newHarness(t, newScriptSource(nil, nil))
	done := h.run(context.Background())

	h.send(OverrideStart)
	waitFor(t, "session start", func() bool { return h.started() == 1 })
	h.send(OverrideQuit)

	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := h.starter.started()[0].stdinWrites(); !reflect.DeepEqual(got, []string{"q"}) {
		t.Errorf("stdin writes = %v, want [q]", got)
	}
	if len(h.ended()) != 1 {
		t.Errorf("got %d sessions, want 1", len(h.ended()))
	}
}

func TestCaptureExitEndsSession(t *testing.T) {
	h := newHarness(t, newScriptSource(nil, nil))
	done := h.run(context.Background())

	h.send(OverrideStart)
	waitFor(t, "session start", func() bool { return h.started() == 1 })
	h.starter.started()[0].exit()
	waitFor(t, "session end", func() bool { return len(h.ended()) == 1 })

	h.send(OverrideStart)
	waitFor(t, "second session", func() bool { return h.started() == 2 })
	h.send(OverrideQuit)

	if err := waitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sessions := h.ended()
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID == sessions[1].ID {
		t.Error("sessions should have distinct IDs")
	}
}

func TestOutputPathAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	first := outputPath(dir, at)
	if want := filepath.Join(dir, "recording_20240305_140709.mp4"); first != want {
		t.Fatalf("outputPath() = %q, want %q", first, want)
	}
	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if second := outputPath(dir, at); second != filepath.Join(dir, "recording_20240305_140709_2.mp4") {
		t.Errorf("outputPath() with existing file = %q", second)
	}
}
