// Package config provides unified configuration for the tool server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (WERKBANK_ prefix)
//  4. Validation
package config

import (
	"time"

	"github.com/rhuss/werkbank/pkg/tools"
)

// Config holds all configuration for the tool server.
type Config struct {
	Roots         RootsConfig         `yaml:"roots"`
	Bash          BashConfig          `yaml:"bash"`
	Limits        LimitsConfig        `yaml:"limits"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RootsConfig names the approved filesystem roots. The workspace is
// writable; the shared root, when set, is readable only.
type RootsConfig struct {
	Workspace string `yaml:"workspace"` // default: /workspace
	Shared    string `yaml:"shared"`    // optional
}

// BashConfig holds shell execution policy.
type BashConfig struct {
	AllowedCommands []string      `yaml:"allowed_commands"` // default: built-in allowlist
	NetworkCommands []string      `yaml:"network_commands"` // default: built-in network subset
	EnvPasslist     []string      `yaml:"env_passlist"`     // default: built-in passlist
	DefaultTimeout  time.Duration `yaml:"default_timeout"`  // default: 30s
}

// LimitsConfig bounds executor output volume. Zero fields take the
// built-in defaults.
type LimitsConfig struct {
	MaxOutputBytes int `yaml:"max_output_bytes"`
	MaxReadLines   int `yaml:"max_read_lines"`
	MaxReadBytes   int `yaml:"max_read_bytes"`
	MaxListEntries int `yaml:"max_list_entries"`
	MaxGlobResults int `yaml:"max_glob_results"`
	MaxGlobScan    int `yaml:"max_glob_scan"`
	MaxGrepMatches int `yaml:"max_grep_matches"`
	MaxGrepLineLen int `yaml:"max_grep_line_len"`
}

// ServerConfig holds protocol loop settings.
type ServerConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"` // default: 5m
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds the local diagnostics listener settings. The
// listener is off by default; the protocol itself never touches it.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: "127.0.0.1:9090"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Roots: RootsConfig{
			Workspace: "/workspace",
		},
		Bash: BashConfig{
			DefaultTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			IdleTimeout: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: false,
				Addr:    "127.0.0.1:9090",
			},
		},
	}
}

// ToolLimits converts the configured limits into the executor limits
// struct, leaving zero fields for the toolbox to default.
func (c *Config) ToolLimits() tools.Limits {
	return tools.Limits{
		MaxOutputBytes: c.Limits.MaxOutputBytes,
		MaxReadLines:   c.Limits.MaxReadLines,
		MaxReadBytes:   c.Limits.MaxReadBytes,
		MaxListEntries: c.Limits.MaxListEntries,
		MaxGlobResults: c.Limits.MaxGlobResults,
		MaxGlobScan:    c.Limits.MaxGlobScan,
		MaxGrepMatches: c.Limits.MaxGrepMatches,
		MaxGrepLineLen: c.Limits.MaxGrepLineLen,
	}
}
