package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Paintersrp/warden/internal/metrics"
	"github.com/Paintersrp/warden/internal/runtime"
)

// Stopped describes the companion a shutdown took out of the registry.
type Stopped struct {
	Pid     int
	Command string
	// KillErr is the kill failure that was logged and otherwise ignored.
	KillErr error
}

// Shutdown takes the companion handle out of reg and kills it. It is safe to
// call any number of times from any goroutine: only the caller that takes
// the handle issues the kill, and every later call is a no-op. Kill failures
// are logged and discarded because an already exited child is not a
// problem. ok reports whether this call performed the kill.
func Shutdown(reg *Registry, logger *zap.Logger) (stopped Stopped, ok bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h, ok := reg.Take()
	if !ok {
		logger.Debug("no managed companion to stop")
		return Stopped{}, false
	}
	metrics.SetCompanionOwned(false)

	stopped = Stopped{Pid: h.Pid(), Command: h.Command(), KillErr: kill(h)}
	if stopped.KillErr != nil {
		logger.Debug("companion kill reported an error", zap.Int("pid", stopped.Pid), zap.Error(stopped.KillErr))
	}
	logger.Info("companion stopped", zap.Int("pid", stopped.Pid))
	return stopped, true
}

func kill(h runtime.Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kill panicked: %v", r)
		}
	}()
	return h.Kill()
}
