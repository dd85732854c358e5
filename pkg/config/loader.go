package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, WERKBANK_CONFIG env, ./config.yaml, /etc/werkbank/config.yaml)
//  3. Environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. WERKBANK_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/werkbank/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("WERKBANK_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/werkbank/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps WERKBANK_* environment variables to config
// fields. List-valued variables are comma-separated.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WERKBANK_WORKSPACE"); v != "" {
		cfg.Roots.Workspace = v
	}
	if v := os.Getenv("WERKBANK_SHARED"); v != "" {
		cfg.Roots.Shared = v
	}
	if v := os.Getenv("WERKBANK_ALLOWED_COMMANDS"); v != "" {
		cfg.Bash.AllowedCommands = splitList(v)
	}
	if v := os.Getenv("WERKBANK_NETWORK_COMMANDS"); v != "" {
		cfg.Bash.NetworkCommands = splitList(v)
	}
	if v := os.Getenv("WERKBANK_ENV_PASSLIST"); v != "" {
		cfg.Bash.EnvPasslist = splitList(v)
	}
	if v := os.Getenv("WERKBANK_DEFAULT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Bash.DefaultTimeout = d
		}
	}
	if v := os.Getenv("WERKBANK_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if v := os.Getenv("WERKBANK_METRICS_ADDR"); v != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Addr = v
	}
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty elements.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
