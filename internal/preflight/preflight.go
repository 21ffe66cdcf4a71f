// Package preflight checks that the external tools and directories the
// recorder and worker depend on are usable.
package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/ffmpeg"
)

// Result reports the outcome of a single check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Requirement names an external binary.
type Requirement struct {
	Name     string
	Command  string
	Optional bool
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		res := Result{Name: req.Name, Optional: req.Optional}
		cmd := strings.TrimSpace(req.Command)
		if cmd == "" {
			res.Detail = "command not configured"
			results = append(results, res)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			res.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, res)
			continue
		}
		res.Passed = true
		res.Detail = path
		results = append(results, res)
	}
	return results
}

// CheckWritable verifies that path is a writable directory. A missing
// directory passes when its nearest existing parent is writable, since
// it is created on first use.
func CheckWritable(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}

	target := path
	for {
		info, err := os.Stat(target)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", target)}
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", target, err)}
		}
		parent := filepath.Dir(target)
		if parent == target {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		target = parent
	}

	if err := checkAccess(target); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", target, err)}
	}
	if target != path {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that a model or cascade file exists.
func CheckFile(name, path string, optional bool) Result {
	res := Result{Name: name, Optional: optional}
	if strings.TrimSpace(path) == "" {
		res.Detail = "not configured"
		return res
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		res.Detail = fmt.Sprintf("%s (missing)", path)
	case info.IsDir():
		res.Detail = fmt.Sprintf("%s (is a directory)", path)
	default:
		res.Passed = true
		res.Detail = path
	}
	return res
}

// RunAll executes every check that applies to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if path, err := ffmpeg.Resolve(cfg.FFmpeg.Path); err != nil {
		results = append(results, Result{Name: "FFmpeg", Detail: err.Error()})
	} else {
		results = append(results, Result{Name: "FFmpeg", Passed: true, Detail: path})
	}

	results = append(results, CheckBinaries([]Requirement{
		{Name: "whisper.cpp", Command: cfg.Whisper.BinaryPath},
	})...)
	results = append(results,
		CheckFile("VAD model", cfg.Whisper.VADModelPath, false),
		CheckFile("Face cascade", cfg.Recorder.Presence.FaceCascade, false),
		CheckFile("Pupil cascade", cfg.Recorder.Presence.PuplocCascade, true),
		CheckWritable("Recordings directory", cfg.Paths.Recordings),
		CheckWritable("Transcripts directory", cfg.Paths.Transcripts),
		CheckWritable("Summaries directory", cfg.Paths.Summaries),
		CheckWritable("Data directory", cfg.Paths.Data),
	)
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

// Render draws results as a table.
func Render(results []Result, fancy bool) string {
	tw := table.NewWriter()
	if fancy {
		tw.SetStyle(table.StyleRounded)
	}
	tw.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, r := range results {
		state := "ok"
		switch {
		case !r.Passed && r.Optional:
			state = "warn"
		case !r.Passed:
			state = "FAIL"
		}
		tw.AppendRow(table.Row{r.Name, state, r.Detail})
	}
	return tw.Render()
}
