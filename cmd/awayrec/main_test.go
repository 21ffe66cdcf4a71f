package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCommand()
	want := []string{"record", "process", "watch", "recap", "status", "devices", "doctor"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestProcessRequiresInput(t *testing.T) {
	_, err := runCommand(t, "process")
	if err == nil || !strings.Contains(err.Error(), "input") {
		t.Errorf("error = %v, want missing --input", err)
	}
}

func TestProcessMissingWorkerConfig(t *testing.T) {
	cfg := writeConfig(t, "summary:\n  provider: workspace\n")
	_, err := runCommand(t, "--config", cfg, "process", "--input", "video.mp4")
	if got := apperr.ExitCode(err); got != apperr.ExitConfig {
		t.Errorf("exit code = %d (%v), want %d", got, err, apperr.ExitConfig)
	}
}

func TestExplicitMissingConfigFails(t *testing.T) {
	_, err := runCommand(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "status")
	if got := apperr.ExitCode(err); got != apperr.ExitConfig {
		t.Errorf("exit code = %d (%v), want %d", got, err, apperr.ExitConfig)
	}
}

func TestStatusEmpty(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "paths:\n"+
		"  recordings: "+filepath.Join(dir, "rec")+"\n"+
		"  transcripts: "+filepath.Join(dir, "tr")+"\n"+
		"  summaries: "+filepath.Join(dir, "sum")+"\n"+
		"  data: "+filepath.Join(dir, "data")+"\n")

	out, err := runCommand(t, "--config", cfg, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "No recordings found.") {
		t.Errorf("output = %q", out)
	}
}

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	printDevices(&buf, nil)
	printDevices(&buf, []string{"/dev/video0"})
	if got := buf.String(); got != "  (none found)\n  /dev/video0\n" {
		t.Errorf("printDevices() = %q", got)
	}
}

func TestExitStatusCancelledIsFailure(t *testing.T) {
	tcs := map[string]error{
		"canceled":         context.Canceled,
		"wrapped canceled": fmt.Errorf("summarize chunk 2: %w", context.Canceled),
		"deadline":         context.DeadlineExceeded,
	}

	for name, err := range tcs {
		t.Run(name, func(t *testing.T) {
			got := exitStatus(err)
			if got == apperr.ExitOK {
				t.Fatalf("exitStatus(%v) = 0, want a failure code", err)
			}
			if got != apperr.ExitUnexpected {
				t.Errorf("exitStatus(%v) = %d, want %d", err, got, apperr.ExitUnexpected)
			}
		})
	}
}

func TestWorkerContextOutlivesParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := workerContext(parent, logger.NewNop())
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
		t.Fatal("worker context cancelled with its parent")
	case <-time.After(50 * time.Millisecond):
	}

	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop did not release the worker context")
	}
}
