package main

import (
	"fmt"
	"os"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps a command error to the process exit code. Commands that
// treat an interrupt as a clean stop return nil themselves, so a cancellation
// that reaches here is a failure.
func exitStatus(err error) int {
	return apperr.ExitCode(err)
}
