package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDelay     = 0.5
	DefaultTimeout   = 30
	DefaultUserAgent = "GraphQL-Introspection-Tool/1.0"
	DefaultMaxBodyMB = 64
)

// Config holds settings read from a YAML file. Command-line flags given
// explicitly take precedence over these values.
type Config struct {
	Proxy     string            `yaml:"proxy"`       // Proxy URL for http and https.
	Delay     float64           `yaml:"delay"`       // Seconds to wait before each request.
	Timeout   int               `yaml:"timeout"`     // Request timeout in seconds.
	MaxBodyMB int               `yaml:"max_body_mb"` // Largest accepted response body in MiB.
	UserAgent string            `yaml:"user_agent"`  // User-Agent header.
	Headers   map[string]string `yaml:"headers"`     // Extra headers sent with every request.
	Pause     bool              `yaml:"pause"`       // Confirm before each request.
	DB        string            `yaml:"db"`          // SQLite run history path.
	NoColor   bool              `yaml:"no_color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Delay:     DefaultDelay,
		Timeout:   DefaultTimeout,
		MaxBodyMB: DefaultMaxBodyMB,
		UserAgent: DefaultUserAgent,
		Headers:   map[string]string{},
	}
}

// Load reads the configuration from a YAML file. A missing file yields the
// defaults without error. Keys absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %v", c.Delay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if c.MaxBodyMB <= 0 {
		return fmt.Errorf("max_body_mb must be positive, got %d", c.MaxBodyMB)
	}
	return nil
}

// DelayDuration returns Delay as a duration.
func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// MaxBodySize returns MaxBodyMB in bytes.
func (c *Config) MaxBodySize() int64 {
	return int64(c.MaxBodyMB) << 20
}
