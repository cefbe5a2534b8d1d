//go:build windows

package tray

import (
	"os"
	"syscall"
)

// Go reports CTRL_CLOSE_EVENT, CTRL_LOGOFF_EVENT and CTRL_SHUTDOWN_EVENT as
// SIGTERM and CTRL_C/CTRL_BREAK as SIGINT.
var watchedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

func classifySignal(sig os.Signal) signalAction {
	switch sig {
	case syscall.SIGTERM:
		return actionWindowDestroyed
	case syscall.SIGINT:
		return actionExit
	default:
		return actionIgnore
	}
}
