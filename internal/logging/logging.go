// Package logging builds the zap logger shared by every warden component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options controls how the logger is assembled.
type Options struct {
	// Level is a zap level name. Empty means info.
	Level string
	// Format is auto, console or json. Auto picks console when Stderr is a
	// terminal.
	Format string
	// File, when set, receives a JSON copy of every entry.
	File string
	// Stderr overrides the primary sink. Defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a logger and a function that flushes and closes its sinks.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(resolveFormat(opts.Format, stderr)), zapcore.Lock(zapcore.AddSync(stderr)), level),
	}

	closers := []func(){}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", opts.File, err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(FormatJSON), zapcore.Lock(f), level))
		closers = append(closers, func() { _ = f.Close() })
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.ErrorOutput(zapcore.AddSync(stderr)))
	cleanup := func() {
		_ = logger.Sync()
		for _, c := range closers {
			c()
		}
	}
	return logger, cleanup, nil
}

func resolveFormat(format string, w io.Writer) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatConsole:
		return FormatConsole
	case FormatJSON:
		return FormatJSON
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return FormatConsole
	}
	return FormatJSON
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if format == FormatConsole {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

// DefaultDir is where warden keeps its own logs when no file is configured.
func DefaultDir() string {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "warden", "logs")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Logs", "warden")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".warden", "logs")
	}
	return filepath.Join(os.TempDir(), "warden", "logs")
}

// DefaultFile is the log file used when the configuration leaves it empty.
func DefaultFile() string {
	return filepath.Join(DefaultDir(), "warden.log")
}
