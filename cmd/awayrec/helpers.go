package main

import (
	"fmt"
	"io"
	"os"
	"syscall"
)

func syscallSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

func printDevices(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "  (none found)")
		return
	}
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}
}
