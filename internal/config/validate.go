package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/docker/go-connections/nat"
	"go.uber.org/zap/zapcore"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the document for semantic errors and resolves derived
// values such as the numeric endpoint port. All problems are reported at
// once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Endpoint.Host) == "" {
		errs = append(errs, fieldError("endpoint.host", "must not be empty"))
	}
	port, err := nat.ParsePort(strings.TrimSpace(c.Endpoint.Port))
	switch {
	case err != nil:
		errs = append(errs, fieldError("endpoint.port", "%q: %v", c.Endpoint.Port, err))
	case port <= 0:
		errs = append(errs, fieldError("endpoint.port", "%q is not a usable port", c.Endpoint.Port))
	default:
		c.Endpoint.port = port
	}

	switch c.Probe.Kind {
	case ProbeKindTCP:
	case ProbeKindHTTP:
		if !strings.HasPrefix(c.Probe.Path, "/") {
			errs = append(errs, fieldError("probe.path", "must start with /"))
		}
		for idx, code := range c.Probe.ExpectStatus {
			if http.StatusText(code) == "" {
				errs = append(errs, fieldError(fmt.Sprintf("probe.expectStatus[%d]", idx), "unknown HTTP status %d", code))
			}
		}
	default:
		errs = append(errs, fieldError("probe.kind", "unsupported kind %q (want %s or %s)", c.Probe.Kind, ProbeKindTCP, ProbeKindHTTP))
	}
	if c.Probe.Timeout.Duration <= 0 {
		errs = append(errs, fieldError("probe.timeout", "must be positive"))
	}
	if c.Probe.Interval.Duration <= 0 {
		errs = append(errs, fieldError("probe.interval", "must be positive"))
	}
	if c.Probe.ReadyTimeout.Duration < 0 {
		errs = append(errs, fieldError("probe.readyTimeout", "must not be negative"))
	}

	if strings.TrimSpace(c.Companion.Primary) == "" {
		errs = append(errs, fieldError("companion.primary", "must not be empty"))
	}
	if len(c.Companion.Argv()) == 0 {
		errs = append(errs, fieldError("companion.script", "an entry-point script or args are required"))
	}
	for key := range c.Companion.Env {
		if key == "" || strings.Contains(key, "=") {
			errs = append(errs, fieldError("companion.env", "invalid variable name %q", key))
		}
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fieldError("logging.level", "%v", err))
	}
	switch c.Logging.Format {
	case LogFormatAuto, LogFormatConsole, LogFormatJSON:
	default:
		errs = append(errs, fieldError("logging.format", "unsupported format %q", c.Logging.Format))
	}

	if listen := strings.TrimSpace(c.Control.Listen); listen != "" {
		if host, port, err := net.SplitHostPort(listen); err != nil {
			errs = append(errs, fieldError("control.listen", "%q: %v", listen, err))
		} else if !isLoopbackHost(host) {
			errs = append(errs, fieldError("control.listen", "%q: host must be loopback", listen))
		} else if _, err := nat.ParsePort(port); err != nil {
			errs = append(errs, fieldError("control.listen", "%q: %v", listen, err))
		} else if listen == c.Endpoint.Address() {
			errs = append(errs, fieldError("control.listen", "must differ from the companion endpoint"))
		}
	}

	return errors.Join(errs...)
}

// isLoopbackHost accepts an empty host, which binds loopback by default.
func isLoopbackHost(host string) bool {
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func fieldError(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}
