//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureCmdSysProcAttr places the child in its own process group and asks
// the kernel to kill it if the supervisor dies without running shutdown.
func configureCmdSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
