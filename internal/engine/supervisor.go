package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Paintersrp/warden/internal/metrics"
	"github.com/Paintersrp/warden/internal/probe"
	"github.com/Paintersrp/warden/internal/runtime"
)

// State describes the supervisor's relationship to the companion process.
type State string

const (
	// StateNoChild means this supervisor owns no process: none was needed,
	// the launch failed, or the child has been shut down.
	StateNoChild State = "no_child"
	// StateOwnedRunning means the registry holds a handle we spawned.
	StateOwnedRunning State = "owned_running"
)

// ListenerLookup describes whatever is listening on the endpoint when an
// instance is found already running. It is only used for diagnostics.
type ListenerLookup func(ctx context.Context) (string, error)

// Option customises a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry injects the registry shared with other trigger handlers.
func WithRegistry(reg *Registry) Option {
	return func(s *Supervisor) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithEvents publishes lifecycle events on ch. Sends never block.
func WithEvents(ch chan<- Event) Option {
	return func(s *Supervisor) {
		s.events = ch
	}
}

// WithListenerLookup sets the diagnostic used when the probe finds an
// instance that this supervisor did not start.
func WithListenerLookup(fn ListenerLookup) Option {
	return func(s *Supervisor) {
		s.lookup = fn
	}
}

// WithReadyCheck makes the supervisor poll the endpoint after a launch until
// the companion accepts connections or timeout elapses. A zero timeout
// disables the check.
func WithReadyCheck(interval, timeout time.Duration) Option {
	return func(s *Supervisor) {
		s.readyInterval = interval
		s.readyTimeout = timeout
	}
}

// WithReadyProber replaces the startup prober for the post-launch ready
// check, typically with one that also checks the response status.
func WithReadyProber(p probe.Prober) Option {
	return func(s *Supervisor) {
		s.readyProber = p
	}
}

// Supervisor ensures a single companion instance runs and that the one it
// started is stopped when any lifecycle trigger fires.
type Supervisor struct {
	prober   probe.Prober
	launcher runtime.Launcher
	spec     runtime.LaunchSpec
	registry *Registry
	logger   *zap.Logger
	events   chan<- Event
	lookup   ListenerLookup

	readyProber   probe.Prober
	readyInterval time.Duration
	readyTimeout  time.Duration

	startOnce sync.Once
	closing   atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor wires the prober, launcher and launch specification.
func NewSupervisor(prober probe.Prober, launcher runtime.Launcher, spec runtime.LaunchSpec, opts ...Option) *Supervisor {
	s := &Supervisor{
		prober:   prober,
		launcher: launcher,
		spec:     spec,
		registry: NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.readyProber == nil {
		s.readyProber = s.prober
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Registry returns the registry holding the owned companion handle.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// State reports whether the supervisor currently owns a running companion.
func (s *Supervisor) State() State {
	if _, ok := s.registry.Current(); ok {
		return StateOwnedRunning
	}
	return StateNoChild
}

// Status is a snapshot of the supervisor for reporting.
type Status struct {
	State   State
	Pid     int
	Command string
	// Exited is set when the owned companion has already terminated on its
	// own and no trigger has fired yet.
	Exited bool
}

// Status returns the current snapshot.
func (s *Supervisor) Status() Status {
	h, ok := s.registry.Current()
	if !ok {
		return Status{State: StateNoChild}
	}
	return Status{
		State:   StateOwnedRunning,
		Pid:     h.Pid(),
		Command: h.Command(),
		Exited:  isDone(h),
	}
}

// Start runs the setup path: probe the endpoint and, if nothing answers,
// launch the companion and store its handle. Only the first call does any
// work. Failures are logged, never returned; the supervisor then simply owns
// no process.
func (s *Supervisor) Start(ctx context.Context) State {
	s.startOnce.Do(func() {
		s.setup(ctx)
	})
	return s.State()
}

func (s *Supervisor) setup(ctx context.Context) {
	probeStart := time.Now()
	alive := probe.Alive(ctx, s.prober)
	metrics.ObserveProbe(time.Since(probeStart), alive)
	sendEvent(s.events, Event{Type: EventTypeProbed, Message: fmt.Sprintf("alive=%t", alive)})

	if alive {
		fields := []zap.Field{}
		if s.lookup != nil {
			if desc, err := s.lookup(ctx); err == nil && desc != "" {
				fields = append(fields, zap.String("listener", desc))
			} else if err != nil {
				s.logger.Debug("could not identify running companion", zap.Error(err))
			}
		}
		s.logger.Info("companion already running; not launching another instance", fields...)
		sendEvent(s.events, Event{Type: EventTypeAlreadyRunning})
		return
	}

	if s.launcher == nil {
		s.logger.Error("no launcher configured; continuing without a managed companion")
		metrics.RecordLaunch(metrics.LaunchFailed)
		sendEvent(s.events, Event{Type: EventTypeLaunchFailed, Err: runtime.ErrLaunchFailed})
		return
	}

	if s.closing.Load() {
		s.logger.Info("application is exiting; not launching the companion")
		return
	}

	h, err := s.launcher.Launch(ctx, s.spec)
	if err == nil && h == nil {
		err = runtime.ErrLaunchFailed
	}
	if err != nil {
		s.logger.Error("companion could not be started; continuing without a managed companion", zap.Error(err))
		metrics.RecordLaunch(metrics.LaunchFailed)
		sendEvent(s.events, Event{Type: EventTypeLaunchFailed, Err: err})
		return
	}

	s.registry.Store(h)
	metrics.SetCompanionOwned(true)
	if h.Command() == strings.TrimSpace(s.spec.Primary) {
		metrics.RecordLaunch(metrics.LaunchStarted)
	} else {
		metrics.RecordLaunch(metrics.LaunchFallback)
	}
	s.logger.Info("companion launched", zap.String("command", h.Command()), zap.Int("pid", h.Pid()))
	sendEvent(s.events, Event{Type: EventTypeLaunched, Pid: h.Pid(), Command: h.Command()})

	if s.closing.Load() {
		// An application-ending trigger fired while the launch was running
		// and found the registry empty.
		s.logger.Info("shutdown requested during launch; stopping companion", zap.Int("pid", h.Pid()))
		if stopped, ok := Shutdown(s.registry, s.logger); ok {
			sendEvent(s.events, Event{Type: EventTypeShutdown, Trigger: TriggerAppExit, Pid: stopped.Pid, Command: stopped.Command})
		}
		return
	}

	s.wg.Add(1)
	go s.watchExit(h)

	if s.readyTimeout > 0 && s.readyProber != nil {
		s.wg.Add(1)
		go s.awaitReady(h)
	}
}

// Trigger is the single entry point for lifecycle triggers. It stops the
// owned companion, if any, and reports whether this call did so. Every
// trigger except TriggerControl ends the application, so a launch still in
// flight when one fires is stopped as soon as it completes.
func (s *Supervisor) Trigger(t Trigger) bool {
	if t != TriggerControl {
		s.closing.Store(true)
	}
	stopped, ok := Shutdown(s.registry, s.logger.With(zap.String("trigger", string(t))))
	if !ok {
		return false
	}
	if stopped.KillErr != nil {
		sendEvent(s.events, Event{Type: EventTypeKillFailed, Trigger: t, Pid: stopped.Pid, Command: stopped.Command, Err: stopped.KillErr})
	}
	metrics.RecordShutdown(string(t))
	sendEvent(s.events, Event{Type: EventTypeShutdown, Trigger: t, Pid: stopped.Pid, Command: stopped.Command})
	return true
}

// Close stops background watchers. It does not stop the companion; fire a
// trigger for that.
func (s *Supervisor) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Supervisor) watchExit(h runtime.Handle) {
	defer s.wg.Done()
	select {
	case <-s.ctx.Done():
		return
	case <-h.Done():
	}

	fields := []zap.Field{zap.Int("pid", h.Pid())}
	if err := h.ExitErr(); err != nil {
		fields = append(fields, zap.Error(err))
	}
	if s.registry.Holds(h) {
		// The handle stays registered; a later shutdown just finds the
		// process gone.
		s.logger.Warn("companion exited on its own", fields...)
		sendEvent(s.events, Event{Type: EventTypeExited, Pid: h.Pid(), Command: h.Command(), Err: h.ExitErr()})
		return
	}
	s.logger.Debug("companion exited after shutdown", fields...)
}

func (s *Supervisor) awaitReady(h runtime.Handle) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.readyTimeout)
	defer cancel()
	go func() {
		select {
		case <-h.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	started := time.Now()
	err := probe.Wait(ctx, s.readyProber, s.readyInterval)
	switch {
	case err == nil:
		s.logger.Info("companion accepting connections", zap.Int("pid", h.Pid()), zap.Duration("after", time.Since(started)))
		sendEvent(s.events, Event{Type: EventTypeReady, Pid: h.Pid(), Command: h.Command()})
	case s.ctx.Err() != nil:
	case isDone(h):
	default:
		s.logger.Warn("companion not accepting connections yet", zap.Int("pid", h.Pid()), zap.Duration("waited", s.readyTimeout), zap.Error(err))
		sendEvent(s.events, Event{Type: EventTypeUnready, Pid: h.Pid(), Command: h.Command(), Err: err})
	}
}

func isDone(h runtime.Handle) bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}
