//go:build !windows

package tray

func newPlatformShell(opts Options) Shell {
	opts.Logger.Debug("system tray unavailable on this platform; using headless shell")
	return NewHeadless(opts.Logger)
}
