//go:build windows

package executor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// killGroupOnCancel keeps the default Cancel, which kills the process. Wait
// is bounded by WaitDelay for any children left behind.
func killGroupOnCancel(cmd *exec.Cmd) {}
