// Package status reports which recordings have been transcribed and
// summarized.
package status

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/awayrec/internal/ledger"
	"github.com/nguyentantai21042004/awayrec/internal/processor"
)

// Dirs names the directories a scan looks at.
type Dirs struct {
	Recordings  string
	Transcripts string
	Summaries   string
}

// Row describes one recording stem.
type Row struct {
	Stem       string
	Recording  string
	Transcript bool
	Summary    bool
	Meta       bool
	// DurationSeconds is -1 when no meta file could be read.
	DurationSeconds int
	Ledger          ledger.Status
	Attempts        int
}

// Scan builds one row per stem found among recordings or transcripts.
// Entries from the watcher ledger, when given, fill the ledger columns.
func Scan(dirs Dirs, extensions []string, entries []ledger.Entry) ([]Row, error) {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	rows := make(map[string]*Row)
	get := func(stem string) *Row {
		r, ok := rows[stem]
		if !ok {
			r = &Row{Stem: stem, DurationSeconds: -1}
			rows[stem] = r
		}
		return r
	}

	recordings, err := listFiles(dirs.Recordings)
	if err != nil {
		return nil, err
	}
	for _, name := range recordings {
		ext := filepath.Ext(name)
		if !exts[strings.ToLower(ext)] {
			continue
		}
		get(strings.TrimSuffix(name, ext)).Recording = name
	}

	transcripts, err := listFiles(dirs.Transcripts)
	if err != nil {
		return nil, err
	}
	for _, name := range transcripts {
		switch {
		case strings.HasSuffix(name, ".transcript.txt"):
			get(strings.TrimSuffix(name, ".transcript.txt")).Transcript = true
		case strings.HasSuffix(name, ".meta.json"):
			r := get(strings.TrimSuffix(name, ".meta.json"))
			r.Meta = true
			if meta, err := processor.ReadMetadata(filepath.Join(dirs.Transcripts, name)); err == nil {
				r.DurationSeconds = meta.DurationSeconds
			}
		}
	}

	summaries, err := listFiles(dirs.Summaries)
	if err != nil {
		return nil, err
	}
	for _, name := range summaries {
		if stem, ok := strings.CutSuffix(name, ".summary.md"); ok {
			get(stem).Summary = true
		}
	}

	for _, e := range entries {
		name := filepath.Base(e.Path)
		if r, ok := rows[strings.TrimSuffix(name, filepath.Ext(name))]; ok {
			r.Ledger = e.Status
			r.Attempts = e.Attempts
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stem < out[j].Stem })
	return out, nil
}

// listFiles returns regular file names in dir; a missing dir is empty.
func listFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
