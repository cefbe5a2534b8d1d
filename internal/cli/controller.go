package cli

import (
	stdcontext "context"
	"time"

	"github.com/Paintersrp/warden/internal/api"
	"github.com/Paintersrp/warden/internal/config"
	"github.com/Paintersrp/warden/internal/engine"
	"github.com/Paintersrp/warden/internal/probe"
)

// controller adapts the supervisor to the control API.
type controller struct {
	sup      *engine.Supervisor
	prober   probe.Prober
	endpoint string
	lookup   engine.ListenerLookup
	run      string
}

func newController(sup *engine.Supervisor, prober probe.Prober, cfg *config.Config, run string) *controller {
	return &controller{
		sup:      sup,
		prober:   prober,
		endpoint: cfg.Endpoint.Address(),
		lookup:   listenerLookup(cfg.Endpoint.PortNumber()),
		run:      run,
	}
}

func (c *controller) Status(ctx stdcontext.Context) (*api.StatusReport, error) {
	st := c.sup.Status()
	report := &api.StatusReport{
		Run:         c.run,
		State:       string(st.State),
		Endpoint:    c.endpoint,
		Alive:       probe.Alive(ctx, c.prober),
		Pid:         st.Pid,
		Command:     st.Command,
		Exited:      st.Exited,
		GeneratedAt: time.Now().UTC(),
	}
	if report.Alive && st.State == engine.StateNoChild && c.lookup != nil {
		if desc, err := c.lookup(ctx); err == nil {
			report.Listener = desc
		}
	}
	return report, nil
}

func (c *controller) Shutdown(ctx stdcontext.Context) (*api.ShutdownResult, error) {
	st := c.sup.Status()
	if !c.sup.Trigger(engine.TriggerControl) {
		return nil, api.ErrNoCompanion
	}
	return &api.ShutdownResult{
		Pid:         st.Pid,
		Command:     st.Command,
		CompletedAt: time.Now().UTC(),
	}, nil
}
