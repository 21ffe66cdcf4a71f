package status

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Render draws rows as a table. Rounded borders are used only on a terminal.
func Render(rows []Row, fancy bool) string {
	if len(rows) == 0 {
		return "No recordings found."
	}

	tw := table.NewWriter()
	if fancy {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.AppendHeader(table.Row{"Stem", "Recording", "Transcript", "Summary", "Meta", "Duration", "Watcher"})

	for _, r := range rows {
		recording := r.Recording
		if recording == "" {
			recording = "-"
		}
		watcher := "-"
		if r.Ledger != "" {
			watcher = fmt.Sprintf("%s (%d)", r.Ledger, r.Attempts)
		}
		tw.AppendRow(table.Row{
			r.Stem, recording, mark(r.Transcript), mark(r.Summary), mark(r.Meta),
			formatDuration(r.DurationSeconds), watcher,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		return "-"
	}
	if seconds < 60 {
		return strconv.Itoa(seconds) + "s"
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh%02dm%02ds", seconds/3600, (seconds%3600)/60, seconds%60)
}
