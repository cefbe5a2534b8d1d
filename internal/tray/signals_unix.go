//go:build !windows

package tray

import (
	"os"
	"syscall"
)

var watchedSignals = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}

func classifySignal(sig os.Signal) signalAction {
	switch sig {
	case syscall.SIGHUP:
		return actionWindowDestroyed
	case syscall.SIGINT, syscall.SIGTERM:
		return actionExit
	default:
		return actionIgnore
	}
}
