package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
	Retry     RetryConfig      `yaml:"retry"`
	Blacklist BlacklistConfig  `yaml:"blacklist"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// EndpointConfig holds settings for one RPC endpoint.
type EndpointConfig struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Protocol string   `yaml:"protocol"` // http (default) or grpc
	Timeout  Duration `yaml:"timeout"`
}

// RetryConfig holds retry orchestration settings.
type RetryConfig struct {
	MaxRetries int      `yaml:"max_retries"`
	BaseDelay  Duration `yaml:"base_delay"`
	MaxDelay   Duration `yaml:"max_delay"`
}

// BlacklistConfig holds quarantine durations by failure severity.
type BlacklistConfig struct {
	MediumDuration Duration `yaml:"medium_duration"`
	HighDuration   Duration `yaml:"high_duration"`
}
