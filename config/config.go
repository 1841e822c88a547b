// Package config loads the agentmux YAML configuration file. All fields are
// optional; Load merges the file over built-in defaults so a missing or empty
// file yields a fully usable configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geniusgordon/agentmux"
)

// DefaultFileName is the config file looked up in the working directory when
// no explicit path is given.
const DefaultFileName = "agentmux.yaml"

// Duration wraps time.Duration for YAML fields in "5s" / "1m30s" form.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// AgentConfig is the per-vendor override block.
type AgentConfig struct {
	// Binary overrides the vendor's default executable name or path.
	Binary string `yaml:"binary,omitempty"`

	// ExtraArgs are appended to the vendor's spawn arguments.
	ExtraArgs []string `yaml:"extra_args,omitempty"`

	// PermissionMode is the default permission posture for this vendor.
	PermissionMode agentmux.PermissionMode `yaml:"permission_mode,omitempty"`
}

// Config is the agentmux configuration.
type Config struct {
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// GracePeriod is the wait between SIGTERM and SIGKILL on client stop.
	GracePeriod Duration `yaml:"grace_period,omitempty"`

	// HandshakeTimeout bounds the initialize exchange at spawn.
	HandshakeTimeout Duration `yaml:"handshake_timeout,omitempty"`

	// QueueSize is the manager event queue capacity.
	QueueSize int `yaml:"queue_size,omitempty"`

	// Agents holds per-vendor overrides keyed by agent type.
	Agents map[agentmux.AgentType]AgentConfig `yaml:"agents,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		GracePeriod:      Duration(5 * time.Second),
		HandshakeTimeout: Duration(30 * time.Second),
		Agents:           map[agentmux.AgentType]AgentConfig{},
	}
}

// Load reads path and merges it over the defaults. A missing file is not an
// error: the defaults are returned. An empty path loads DefaultFileName from
// the working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.merge(&file)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// merge copies set fields of file over c.
func (c *Config) merge(file *Config) {
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.GracePeriod > 0 {
		c.GracePeriod = file.GracePeriod
	}
	if file.HandshakeTimeout > 0 {
		c.HandshakeTimeout = file.HandshakeTimeout
	}
	if file.QueueSize > 0 {
		c.QueueSize = file.QueueSize
	}
	for t, a := range file.Agents {
		c.Agents[t] = a
	}
}

// Agent returns the override block for an agent type, zero when absent.
func (c *Config) Agent(t agentmux.AgentType) AgentConfig {
	return c.Agents[t]
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for t, a := range c.Agents {
		switch a.PermissionMode {
		case "", agentmux.PermissionDefault, agentmux.PermissionAutoEdit,
			agentmux.PermissionBypass, agentmux.PermissionPlan:
		default:
			return fmt.Errorf("agent %q: unknown permission_mode %q", t, a.PermissionMode)
		}
	}
	return nil
}
