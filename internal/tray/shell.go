// Package tray hosts the user-facing shell around the supervisor: a system
// tray icon on Windows and a signal-driven headless shell elsewhere. The
// shell only reports lifecycle events; stopping the companion is left to
// the hooks.
package tray

import (
	"context"

	"go.uber.org/zap"
)

// Hooks are invoked by the shell. Nil hooks are skipped.
type Hooks struct {
	// OnSetup runs once the shell is ready, before any other hook. Run does
	// not return while it is still running.
	OnSetup func(ctx context.Context)
	// OnShow asks for the companion UI to be brought up.
	OnShow func()
	// OnQuit is the explicit quit request from the menu. The shell exits
	// after it returns.
	OnQuit func()
	// OnWindowDestroyed reports that the hosting window or terminal is gone.
	// The shell exits after it returns.
	OnWindowDestroyed func()
}

// Shell runs the UI loop until the application should exit.
type Shell interface {
	Run(ctx context.Context, hooks Hooks) error
}

// Options configures the shell.
type Options struct {
	Headless bool
	Title    string
	Tooltip  string
	Logger   *zap.Logger
}

// New returns the shell for the current platform, or the headless shell
// when requested.
func New(opts Options) Shell {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Headless {
		return NewHeadless(opts.Logger)
	}
	return newPlatformShell(opts)
}

func (h Hooks) setup(ctx context.Context) {
	if h.OnSetup != nil {
		h.OnSetup(ctx)
	}
}

func (h Hooks) show() {
	if h.OnShow != nil {
		h.OnShow()
	}
}

func (h Hooks) quit() {
	if h.OnQuit != nil {
		h.OnQuit()
	}
}

func (h Hooks) windowDestroyed() {
	if h.OnWindowDestroyed != nil {
		h.OnWindowDestroyed()
	}
}
