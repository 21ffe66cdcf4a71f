package recorder

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ParseKey maps one terminal line to an override: s starts, e ends, q quits.
func ParseKey(line string) (Override, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s":
		return OverrideStart, true
	case "e":
		return OverrideStop, true
	case "q":
		return OverrideQuit, true
	default:
		return 0, false
	}
}

// ReadOverrides forwards recognised lines from r until r ends or ctx is done.
// The returned channel is closed when reading stops.
func ReadOverrides(ctx context.Context, r io.Reader) <-chan Override {
	out := make(chan Override)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			o, ok := ParseKey(sc.Text())
			if !ok {
				continue
			}
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// TerminalOverrides reads overrides from f only when it is an interactive
// terminal; otherwise it returns nil, which never delivers.
func TerminalOverrides(ctx context.Context, f *os.File) <-chan Override {
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return ReadOverrides(ctx, f)
}
