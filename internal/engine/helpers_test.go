package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Paintersrp/warden/internal/runtime"
)

type fakeHandle struct {
	pid     int
	killErr error
	panics  bool

	kills atomic.Int32
	done  chan struct{}
	once  sync.Once
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, done: make(chan struct{})}
}

func (h *fakeHandle) Pid() int              { return h.pid }
func (h *fakeHandle) Command() string       { return "fake" }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) ExitErr() error        { return nil }

func (h *fakeHandle) Kill() error {
	h.kills.Add(1)
	h.exit()
	if h.panics {
		panic("kill exploded")
	}
	return h.killErr
}

func (h *fakeHandle) exit() {
	h.once.Do(func() { close(h.done) })
}

type fakeLauncher struct {
	handle runtime.Handle
	err    error

	// When set, Launch closes entered and then blocks until release closes.
	entered chan struct{}
	release chan struct{}

	calls atomic.Int32
	specs []runtime.LaunchSpec
	mu    sync.Mutex
}

func (l *fakeLauncher) Launch(ctx context.Context, spec runtime.LaunchSpec) (runtime.Handle, error) {
	l.calls.Add(1)
	l.mu.Lock()
	l.specs = append(l.specs, spec)
	l.mu.Unlock()
	if l.release != nil {
		close(l.entered)
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.handle, nil
}

type staticProber struct {
	alive atomic.Bool
	calls atomic.Int32
}

func (p *staticProber) Probe(ctx context.Context) error {
	p.calls.Add(1)
	if p.alive.Load() {
		return nil
	}
	return errors.New("connection refused")
}

func expectEvent(t *testing.T, events <-chan Event, typ EventType, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func ensureNoEvent(t *testing.T, events <-chan Event, typ EventType, duration time.Duration) {
	t.Helper()
	deadline := time.After(duration)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				t.Fatalf("unexpected %s event: %+v", typ, ev)
			}
		case <-deadline:
			return
		}
	}
}
