package config

import (
	"fmt"
	"net"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = "8765"
	DefaultProbeTimeout = time.Second
	DefaultInterval     = 500 * time.Millisecond
	DefaultReadyTimeout = 30 * time.Second
	DefaultFallback     = "python"
	DefaultScript       = "main.py"
	DefaultTitle        = "warden"

	ProbeKindTCP  = "tcp"
	ProbeKindHTTP = "http"

	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"

	// LogFileNone disables the log file; output goes to stderr only.
	LogFileNone = "-"
)

// DefaultPrimary returns the interpreter tried first. On Windows the
// windowless pythonw binary avoids flashing a console.
func DefaultPrimary() string {
	if runtime.GOOS == "windows" {
		return "pythonw"
	}
	return "python3"
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
	explicit bool
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	d.explicit = true
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// IsSet reports whether the duration was explicitly provided or non-zero.
func (d Duration) IsSet() bool {
	return d.explicit || d.Duration != 0
}

// Config mirrors the warden.yaml document structure.
type Config struct {
	Endpoint  Endpoint    `yaml:"endpoint"`
	Probe     ProbeSpec   `yaml:"probe"`
	Companion Companion   `yaml:"companion"`
	UI        UISpec      `yaml:"ui"`
	Logging   LoggingSpec `yaml:"logging"`
	Control   ControlSpec `yaml:"control"`

	// Source is the absolute path the document was loaded from, empty for
	// the built-in defaults.
	Source string `yaml:"-"`
}

// Endpoint is where a running companion is expected to listen. It is only
// ever used for liveness probing.
type Endpoint struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	port int
}

// Address returns the host:port pair suitable for dialing.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, e.Port)
}

// PortNumber returns the validated numeric port. It is zero until the
// configuration has been validated.
func (e Endpoint) PortNumber() int {
	return e.port
}

// ProbeSpec configures the liveness check against the endpoint.
type ProbeSpec struct {
	Kind         string   `yaml:"kind"`
	Timeout      Duration `yaml:"timeout"`
	Interval     Duration `yaml:"interval"`
	ReadyTimeout Duration `yaml:"readyTimeout"`
	Path         string   `yaml:"path"`
	ExpectStatus []int    `yaml:"expectStatus"`
}

// Companion describes how to launch the supervised process.
type Companion struct {
	Primary  string            `yaml:"primary"`
	Fallback string            `yaml:"fallback"`
	Script   string            `yaml:"script"`
	Args     []string          `yaml:"args"`
	Workdir  string            `yaml:"workdir"`
	Env      map[string]string `yaml:"env"`
	LogFile  string            `yaml:"logFile"`
}

// Argv returns the arguments passed to whichever interpreter starts: the
// entry-point script followed by any extra arguments.
func (c Companion) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	if c.Script != "" {
		argv = append(argv, c.Script)
	}
	return append(argv, c.Args...)
}

// defaultScript points an interpreter that was given nothing to run at the
// conventional entry point. Extra args alone (such as "-m pkg") count as an
// entry point.
func (c *Companion) defaultScript() {
	if strings.TrimSpace(c.Script) == "" && len(c.Args) == 0 {
		c.Script = DefaultScript
	}
}

// UISpec configures the tray presentation.
type UISpec struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

// LoggingSpec configures the supervisor's own log output.
type LoggingSpec struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ControlSpec configures the optional local control API. An empty Listen
// disables it.
type ControlSpec struct {
	Listen string `yaml:"listen"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with built-in values.
func (c *Config) ApplyDefaults() {
	if c.Endpoint.Host == "" {
		c.Endpoint.Host = DefaultHost
	}
	if c.Endpoint.Port == "" {
		c.Endpoint.Port = DefaultPort
	}
	if c.Probe.Kind == "" {
		c.Probe.Kind = ProbeKindTCP
	}
	if !c.Probe.Timeout.IsSet() {
		c.Probe.Timeout.Duration = DefaultProbeTimeout
	}
	if !c.Probe.Interval.IsSet() {
		c.Probe.Interval.Duration = DefaultInterval
	}
	// An explicit zero disables waiting for a freshly launched companion.
	if !c.Probe.ReadyTimeout.IsSet() {
		c.Probe.ReadyTimeout.Duration = DefaultReadyTimeout
	}
	if c.Probe.Kind == ProbeKindHTTP && c.Probe.Path == "" {
		c.Probe.Path = "/"
	}
	if c.Companion.Primary == "" {
		c.Companion.Primary = DefaultPrimary()
	}
	if c.Companion.Fallback == "" {
		c.Companion.Fallback = DefaultFallback
	}
	c.Companion.defaultScript()
	if c.UI.Title == "" {
		c.UI.Title = DefaultTitle
	}
	if c.UI.URL == "" {
		c.UI.URL = "http://" + c.Endpoint.Address()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatAuto
	}
}
