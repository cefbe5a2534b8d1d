package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a warden configuration from the provided path.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc Config
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	doc.Source = absPath

	// Filled before expansion so the default entry point resolves against
	// the config directory like an explicit one.
	doc.Companion.defaultScript()
	doc.expand(filepath.Dir(absPath))
	doc.ApplyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

// LoadOrDefault loads path when it exists. A missing file falls back to the
// built-in defaults unless required is set, in which case it is an error.
func LoadOrDefault(path string, required bool) (*Config, error) {
	if path == "" {
		if required {
			return nil, errors.New("config path is empty")
		}
		return validatedDefault()
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return validatedDefault()
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}
	return Load(path)
}

func validatedDefault() (*Config, error) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expand applies ${VAR} expansion and resolves relative paths against the
// directory holding the configuration file.
func (c *Config) expand(base string) {
	c.Endpoint.Host = os.ExpandEnv(c.Endpoint.Host)
	c.Endpoint.Port = os.ExpandEnv(c.Endpoint.Port)
	c.UI.URL = os.ExpandEnv(c.UI.URL)

	comp := &c.Companion
	comp.Primary = os.ExpandEnv(comp.Primary)
	comp.Fallback = os.ExpandEnv(comp.Fallback)
	comp.Script = resolvePath(base, os.ExpandEnv(comp.Script))
	comp.Workdir = resolvePath(base, os.ExpandEnv(comp.Workdir))
	comp.LogFile = resolvePath(base, os.ExpandEnv(comp.LogFile))
	for i, arg := range comp.Args {
		comp.Args[i] = os.ExpandEnv(arg)
	}
	if len(comp.Env) > 0 {
		env := make(map[string]string, len(comp.Env))
		for k, v := range comp.Env {
			env[k] = os.ExpandEnv(v)
		}
		comp.Env = env
	}

	if file := os.ExpandEnv(c.Logging.File); file != LogFileNone {
		c.Logging.File = resolvePath(base, file)
	}
}

func resolvePath(base, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}
