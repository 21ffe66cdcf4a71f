//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
)

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroupOnCancel starts cmd in its own process group and kills the whole
// group when the context ends, so grandchildren such as a shell's children
// do not hold the output pipes open.
func killGroupOnCancel(cmd *exec.Cmd) {
	detach(cmd)
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
