package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Paintersrp/warden/internal/runtime"
)

// Option customises the launcher.
type Option func(*launcher)

// WithLogger routes launch diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

type launcher struct {
	logger *zap.Logger
}

// New constructs a launcher that starts the companion as a detached,
// windowless local process.
func New(opts ...Option) runtime.Launcher {
	l := &launcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *launcher) Launch(ctx context.Context, spec runtime.LaunchSpec) (runtime.Handle, error) {
	commands := spec.Commands()
	if len(commands) == 0 {
		return nil, fmt.Errorf("%w: no command configured", runtime.ErrLaunchFailed)
	}

	var errs []error
	for i, name := range commands {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		handle, err := l.start(name, spec)
		if err == nil {
			fields := []zap.Field{zap.String("command", name), zap.Int("pid", handle.Pid())}
			if i > 0 {
				l.logger.Info("companion started with fallback command", fields...)
			} else {
				l.logger.Debug("companion started", fields...)
			}
			return handle, nil
		}
		l.logger.Warn("companion command failed to start", zap.String("command", name), zap.Error(err))
		errs = append(errs, fmt.Errorf("start %s: %w", name, err))
	}
	return nil, fmt.Errorf("%w: %w", runtime.ErrLaunchFailed, errors.Join(errs...))
}

func (l *launcher) start(name string, spec runtime.LaunchSpec) (*processHandle, error) {
	cmd := exec.Command(name, spec.Args...)
	if spec.Workdir != "" {
		cmd.Dir = spec.Workdir
	}
	cmd.Env = mergeEnv(os.Environ(), spec.Env)

	var logFile *os.File
	if spec.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create companion log dir: %w", err)
		}
		f, err := os.OpenFile(spec.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open companion log: %w", err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	configureCmdSysProcAttr(cmd)

	release, err := startWithCleanup(cmd, l.logger)
	if logFile != nil {
		// The child holds its own descriptor from here on.
		_ = logFile.Close()
	}
	if err != nil {
		return nil, err
	}

	h := &processHandle{
		cmd:     cmd,
		command: name,
		pid:     cmd.Process.Pid,
		done:    make(chan struct{}),
		release: release,
	}
	go h.wait()
	return h, nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	env := slices.Clone(base)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

type processHandle struct {
	cmd     *exec.Cmd
	command string
	pid     int

	done    chan struct{}
	exitErr error

	release     func()
	releaseOnce sync.Once
}

func (h *processHandle) Pid() int {
	return h.pid
}

func (h *processHandle) Command() string {
	return h.command
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

func (h *processHandle) ExitErr() error {
	select {
	case <-h.done:
		return h.exitErr
	default:
		return nil
	}
}

func (h *processHandle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *processHandle) wait() {
	h.exitErr = h.cmd.Wait()
	close(h.done)
}

func (h *processHandle) releaseResources() {
	h.releaseOnce.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}

var _ runtime.Handle = (*processHandle)(nil)
