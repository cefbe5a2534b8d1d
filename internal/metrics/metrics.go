package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LaunchStarted  = "started"
	LaunchFallback = "fallback"
	LaunchFailed   = "failed"
)

var (
	registry = prometheus.NewRegistry()

	companionRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "warden",
		Name:      "companion_owned",
		Help:      "Whether this supervisor owns a running companion (1=owned, 0=none).",
	})

	companionLaunches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "companion_launches_total",
		Help:      "Companion launch attempts by outcome.",
	}, []string{"result"})

	shutdowns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "shutdowns_total",
		Help:      "Lifecycle triggers that stopped an owned companion.",
	}, []string{"trigger"})

	probeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "warden",
		Name:      "probe_latency_seconds",
		Help:      "Latency of liveness probes in seconds.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
	}, []string{"alive"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "warden",
		Name:      "build_info",
		Help:      "Build metadata for the running warden binary.",
	}, []string{"go_version", "revision", "dirty"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(companionRunning, companionLaunches, shutdowns, probeLatency, buildInfo)
}

// Registry returns the Prometheus registry containing all warden metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetCompanionOwned records whether a companion handle is currently held.
func SetCompanionOwned(owned bool) {
	value := 0.0
	if owned {
		value = 1.0
	}
	companionRunning.Set(value)
}

// RecordLaunch counts a launch attempt with the given result.
func RecordLaunch(result string) {
	if result == "" {
		return
	}
	companionLaunches.WithLabelValues(result).Inc()
}

// RecordShutdown counts a trigger that actually stopped the companion.
func RecordShutdown(trigger string) {
	if trigger == "" {
		trigger = "unknown"
	}
	shutdowns.WithLabelValues(trigger).Inc()
}

// ObserveProbe records the latency of a single liveness probe.
func ObserveProbe(d time.Duration, alive bool) {
	label := "false"
	if alive {
		label = "true"
	}
	probeLatency.WithLabelValues(label).Observe(d.Seconds())
}

// EmitBuildInfo publishes the Go version and VCS state of the binary once.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		goVersion, revision, dirty := runtime.Version(), "unknown", "false"
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					revision = setting.Value
				case "vcs.modified":
					dirty = setting.Value
				}
			}
		}
		buildInfo.WithLabelValues(goVersion, revision, dirty).Set(1)
	})
}
