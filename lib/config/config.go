// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for safetybus.
type Config struct {
	// Environment identifies the deployment type (development,
	// staging, production).
	Environment Environment `yaml:"environment"`

	// Root is the base directory for safetybus data. Other paths may
	// reference it as ${SAFETYBUS_ROOT}.
	Root string `yaml:"root"`

	// SocketPath is the Unix socket the service listens on and
	// clients connect to.
	SocketPath string `yaml:"socket_path"`

	// Service configures the bus service daemon.
	Service ServiceConfig `yaml:"service"`

	// Client configures CLI and library defaults.
	Client ClientConfig `yaml:"client"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Root       string         `yaml:"root,omitempty"`
	SocketPath string         `yaml:"socket_path,omitempty"`
	Service    *ServiceConfig `yaml:"service,omitempty"`
	Client     *ClientConfig  `yaml:"client,omitempty"`
}

// ServiceConfig configures the bus service daemon.
type ServiceConfig struct {
	// JournalDir is where per-bus journal files are written.
	// Default: ${SAFETYBUS_ROOT}/journals
	JournalDir string `yaml:"journal_dir"`

	// Persist controls durable journaling. When false the service
	// keeps logs in memory only — a restart loses every bus.
	// Default: true.
	Persist bool `yaml:"persist"`
}

// ClientConfig configures CLI and library defaults.
type ClientConfig struct {
	// DefaultBus is the bus used when a command does not name one.
	// Default: "agent"
	DefaultBus string `yaml:"default_bus"`

	// WaitMaxAttempts is the decision-wait attempt budget.
	// Default: 30
	WaitMaxAttempts int `yaml:"wait_max_attempts"`

	// WaitInterval is the pause between decision-wait attempts, as a
	// Go duration string. Default: "1s"
	WaitInterval string `yaml:"wait_interval"`

	// MaxIntentions is the committed-intentions scan budget.
	// Default: 5000
	MaxIntentions int `yaml:"max_intentions"`
}

// WaitIntervalDuration parses the WaitInterval string.
func (c *ClientConfig) WaitIntervalDuration() (time.Duration, error) {
	interval, err := time.ParseDuration(c.WaitInterval)
	if err != nil {
		return 0, fmt.Errorf("config: parsing client wait_interval %q: %w", c.WaitInterval, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("config: client wait_interval %q must be positive", c.WaitInterval)
	}
	return interval, nil
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file; they ensure every field
// has a sensible value, not a substitute for the file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "safetybus")

	return &Config{
		Environment: Development,
		Root:        defaultRoot,
		SocketPath:  filepath.Join(defaultRoot, "bus.sock"),
		Service: ServiceConfig{
			JournalDir: filepath.Join(defaultRoot, "journals"),
			Persist:    true,
		},
		Client: ClientConfig{
			DefaultBus:      "agent",
			WaitMaxAttempts: 30,
			WaitInterval:    "1s",
			MaxIntentions:   5000,
		},
	}
}

// Load loads configuration from the SAFETYBUS_CONFIG environment
// variable. There are no fallbacks — if SAFETYBUS_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("SAFETYBUS_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SAFETYBUS_CONFIG environment variable not set; " +
			"set it to the path of your safetybus.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override config values. The only expansion performed is ${HOME} and
// ${SAFETYBUS_ROOT} in paths, for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching the
// configured environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: system paths rather than the user
		// cache.
		if overrides == nil {
			overrides = &Overrides{
				SocketPath: "/run/safetybus/bus.sock",
				Service: &ServiceConfig{
					JournalDir: "/var/lib/safetybus/journals",
					Persist:    true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Root != "" {
		c.Root = overrides.Root
	}
	if overrides.SocketPath != "" {
		c.SocketPath = overrides.SocketPath
	}

	if overrides.Service != nil {
		if overrides.Service.JournalDir != "" {
			c.Service.JournalDir = overrides.Service.JournalDir
		}
		// Persist is a bool, so we always apply it from overrides.
		c.Service.Persist = overrides.Service.Persist
	}

	if overrides.Client != nil {
		if overrides.Client.DefaultBus != "" {
			c.Client.DefaultBus = overrides.Client.DefaultBus
		}
		if overrides.Client.WaitMaxAttempts != 0 {
			c.Client.WaitMaxAttempts = overrides.Client.WaitMaxAttempts
		}
		if overrides.Client.WaitInterval != "" {
			c.Client.WaitInterval = overrides.Client.WaitInterval
		}
		if overrides.Client.MaxIntentions != 0 {
			c.Client.MaxIntentions = overrides.Client.MaxIntentions
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"SAFETYBUS_ROOT": c.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Root = expandVars(c.Root, vars)
	vars["SAFETYBUS_ROOT"] = c.Root // Update for dependent paths.

	c.SocketPath = expandVars(c.SocketPath, vars)
	c.Service.JournalDir = expandVars(c.Service.JournalDir, vars)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Root == "" {
		errs = append(errs, fmt.Errorf("root is required"))
	}

	if c.SocketPath == "" {
		errs = append(errs, fmt.Errorf("socket_path is required"))
	}

	if c.Service.Persist && c.Service.JournalDir == "" {
		errs = append(errs, fmt.Errorf("service.journal_dir is required when service.persist is true"))
	}

	if c.Client.DefaultBus == "" {
		errs = append(errs, fmt.Errorf("client.default_bus is required"))
	}

	if c.Client.WaitMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("client.wait_max_attempts must be positive"))
	}

	if _, err := c.Client.WaitIntervalDuration(); err != nil {
		errs = append(errs, err)
	}

	if c.Client.MaxIntentions <= 0 {
		errs = append(errs, fmt.Errorf("client.max_intentions must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Root,
		filepath.Dir(c.SocketPath),
	}
	if c.Service.Persist {
		paths = append(paths, c.Service.JournalDir)
	}

	for _, path := range paths {
		if err := os.MkdirAll(path, 0o700); err != nil {
			return fmt.Errorf("config: creating directory %s: %w", path, err)
		}
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}
