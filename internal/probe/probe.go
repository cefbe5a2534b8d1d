// Package probe answers a single question: is a companion instance already
// accepting connections on the configured endpoint?
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/Paintersrp/warden/internal/config"
)

// Prober defines a single liveness attempt. A nil error means something is
// listening on the endpoint.
type Prober interface {
	Probe(ctx context.Context) error
}

// Func adapts a plain function to the Prober interface.
type Func func(ctx context.Context) error

// Probe calls f.
func (f Func) Probe(ctx context.Context) error {
	return f(ctx)
}

// New constructs the startup prober described by the configuration. Any
// instance that answers on the endpoint counts as running: with the http kind
// an error status still means something is listening there.
func New(cfg *config.Config) (Prober, error) {
	return build(cfg, false)
}

// NewReady constructs the prober used to decide that a freshly launched
// companion is serving. With the http kind it also enforces the expected
// status codes.
func NewReady(cfg *config.Config) (Prober, error) {
	return build(cfg, true)
}

func build(cfg *config.Config, strict bool) (Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("probe: missing configuration")
	}
	timeout := cfg.Probe.Timeout.Duration
	switch cfg.Probe.Kind {
	case "", config.ProbeKindTCP:
		return NewTCP(cfg.Endpoint.Address(), timeout), nil
	case config.ProbeKindHTTP:
		url := "http://" + cfg.Endpoint.Address() + cfg.Probe.Path
		if !strict {
			return NewHTTPReachable(url, timeout), nil
		}
		return NewHTTP(url, timeout, cfg.Probe.ExpectStatus...), nil
	default:
		return nil, fmt.Errorf("probe: unsupported kind %q", cfg.Probe.Kind)
	}
}

// Alive runs exactly one attempt and reports whether it succeeded. Failure
// causes are deliberately not distinguished.
func Alive(ctx context.Context, p Prober) bool {
	if p == nil {
		return false
	}
	return p.Probe(ctx) == nil
}

// Wait polls until the prober succeeds or ctx is done. It returns the last
// probe error when the context expires first.
func Wait(ctx context.Context, p Prober, interval time.Duration) error {
	if interval <= 0 {
		interval = config.DefaultInterval
	}
	var lastErr error
	for {
		lastErr = p.Probe(ctx)
		if lastErr == nil {
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last attempt: %v)", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}
