package runtime

import (
	"context"
	"errors"
	"maps"
	"strings"

	"github.com/Paintersrp/warden/internal/config"
)

// ErrLaunchFailed is returned when neither the primary nor the fallback
// command could be started.
var ErrLaunchFailed = errors.New("companion launch failed")

// LaunchSpec describes how to start the companion process.
type LaunchSpec struct {
	// Primary is tried first; Fallback is tried with the same arguments
	// when Primary cannot be started.
	Primary  string
	Fallback string
	Args     []string
	Workdir  string
	Env      map[string]string
	// LogFile receives the child's stdout and stderr when set. Otherwise
	// the child inherits nothing from the launcher.
	LogFile string
}

// SpecFromConfig builds the launch specification for the configured
// companion.
func SpecFromConfig(cfg *config.Config) LaunchSpec {
	if cfg == nil {
		return LaunchSpec{}
	}
	comp := cfg.Companion
	spec := LaunchSpec{
		Primary:  comp.Primary,
		Fallback: comp.Fallback,
		Args:     comp.Argv(),
		Workdir:  comp.Workdir,
		LogFile:  comp.LogFile,
	}
	if len(comp.Env) > 0 {
		spec.Env = maps.Clone(comp.Env)
	}
	return spec
}

// Commands returns the distinct, non-empty commands to attempt, in order.
func (s LaunchSpec) Commands() []string {
	cmds := make([]string, 0, 2)
	for _, c := range []string{s.Primary, s.Fallback} {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if len(cmds) > 0 && cmds[0] == c {
			continue
		}
		cmds = append(cmds, c)
	}
	return cmds
}

// Handle is an exclusively owned reference to a spawned child process.
type Handle interface {
	// Pid returns the operating system process id.
	Pid() int
	// Command returns the command that was started successfully.
	Command() string
	// Kill forcefully terminates the process. Calling it after the process
	// has exited returns an error that callers may ignore.
	Kill() error
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
	// ExitErr reports how the process exited. Only meaningful after Done.
	ExitErr() error
}

// Launcher starts companion processes.
type Launcher interface {
	// Launch starts the primary command, falling back to the secondary one.
	// The returned error wraps ErrLaunchFailed when nothing could be
	// started.
	Launch(ctx context.Context, spec LaunchSpec) (Handle, error)
}
