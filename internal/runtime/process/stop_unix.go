//go:build !windows

package process

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Kill sends SIGKILL to the child's process group so interpreter
// subprocesses go down with it, then falls back to the direct child.
func (h *processHandle) Kill() error {
	defer h.releaseResources()
	if h.cmd.Process == nil || h.exited() {
		return os.ErrProcessDone
	}

	err := unix.Kill(-h.pid, unix.SIGKILL)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill process group %d: %w", h.pid, err)
	}
	if err := h.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill process %d: %w", h.pid, err)
	}
	return nil
}
