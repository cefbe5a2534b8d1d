package tray

import (
	"context"
	"os"
	"os/signal"

	"go.uber.org/zap"
)

type signalAction int

const (
	actionIgnore signalAction = iota
	actionWindowDestroyed
	actionExit
)

// HeadlessOption customises the headless shell.
type HeadlessOption func(*headless)

// WithSignals replaces OS signal delivery with ch.
func WithSignals(ch <-chan os.Signal) HeadlessOption {
	return func(h *headless) {
		h.signals = ch
	}
}

type headless struct {
	logger  *zap.Logger
	signals <-chan os.Signal
}

// NewHeadless returns a shell driven by process signals. The controlling
// terminal stands in for the window: losing it fires OnWindowDestroyed,
// while interrupts and context cancellation end the run.
func NewHeadless(logger *zap.Logger, opts ...HeadlessOption) Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &headless{logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *headless) Run(ctx context.Context, hooks Hooks) error {
	signals := h.signals
	if signals == nil {
		ch := make(chan os.Signal, 4)
		signal.Notify(ch, watchedSignals...)
		defer signal.Stop(ch)
		signals = ch
	}

	hooks.setup(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("headless shell stopping", zap.Error(ctx.Err()))
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			switch classifySignal(sig) {
			case actionWindowDestroyed:
				h.logger.Info("controlling terminal closed", zap.String("signal", sig.String()))
				hooks.windowDestroyed()
				return nil
			case actionExit:
				h.logger.Info("exit requested", zap.String("signal", sig.String()))
				return nil
			default:
				h.logger.Debug("ignoring signal", zap.String("signal", sig.String()))
			}
		}
	}
}
