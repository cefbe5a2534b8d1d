//go:build windows

package process

import (
	"fmt"
	"os"
)

// Kill terminates the child and closes its job object, which takes down
// anything else the child started.
func (h *processHandle) Kill() error {
	defer h.releaseResources()
	if h.cmd.Process == nil || h.exited() {
		return os.ErrProcessDone
	}
	if err := h.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill process %d: %w", h.pid, err)
	}
	return nil
}
