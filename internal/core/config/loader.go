package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	for i := range cfg.Endpoints {
		if cfg.Endpoints[i].Protocol == "" {
			cfg.Endpoints[i].Protocol = "http"
		}
		if cfg.Endpoints[i].Timeout == 0 {
			cfg.Endpoints[i].Timeout = Duration(30 * time.Second)
		}
	}

	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = Duration(1 * time.Second)
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = Duration(30 * time.Second)
	}

	if cfg.Blacklist.MediumDuration == 0 {
		cfg.Blacklist.MediumDuration = Duration(30 * time.Second)
	}
	if cfg.Blacklist.HighDuration == 0 {
		cfg.Blacklist.HighDuration = Duration(2 * time.Minute)
	}

	return &cfg, nil
}
