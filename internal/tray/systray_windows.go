//go:build windows

package tray

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"
	"go.uber.org/zap"
)

type systrayShell struct {
	opts Options
}

func newPlatformShell(opts Options) Shell {
	return &systrayShell{opts: opts}
}

func (s *systrayShell) Run(ctx context.Context, hooks Hooks) error {
	logger := s.opts.Logger
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var quitOnce sync.Once
	stop := func() {
		quitOnce.Do(systray.Quit)
	}

	// Closed once OnSetup has returned, so Run never returns while the
	// companion launch is still in progress.
	setupDone := make(chan struct{})
	var readyStarted atomic.Bool

	onReady := func() {
		readyStarted.Store(true)
		if icon, err := iconICO(32); err == nil {
			systray.SetIcon(icon)
		} else {
			logger.Warn("tray icon could not be rendered", zap.Error(err))
		}
		systray.SetTitle(s.opts.Title)
		systray.SetTooltip(s.opts.Tooltip)

		mShow := systray.AddMenuItem("Show", "Open the companion UI")
		systray.AddSeparator()
		mQuit := systray.AddMenuItem("Quit", "Stop the companion and exit")

		func() {
			defer close(setupDone)
			hooks.setup(ctx)
		}()

		signals := make(chan os.Signal, 2)
		signal.Notify(signals, watchedSignals...)

		go func() {
			defer signal.Stop(signals)
			for {
				select {
				case <-ctx.Done():
					stop()
					return
				case <-mShow.ClickedCh:
					logger.Debug("tray: show")
					hooks.show()
				case <-mQuit.ClickedCh:
					logger.Info("tray: quit")
					hooks.quit()
					stop()
					return
				case sig := <-signals:
					switch classifySignal(sig) {
					case actionWindowDestroyed:
						logger.Info("console closed", zap.String("signal", sig.String()))
						hooks.windowDestroyed()
						stop()
						return
					case actionExit:
						logger.Info("exit requested", zap.String("signal", sig.String()))
						stop()
						return
					}
				}
			}
		}()
	}

	systray.Run(onReady, func() {
		logger.Debug("tray loop finished")
	})
	if readyStarted.Load() {
		<-setupDone
	}
	return nil
}
