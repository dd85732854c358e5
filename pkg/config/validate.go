package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Roots.Workspace == "" {
		errs = append(errs, fmt.Errorf("roots.workspace is required"))
	} else if !filepath.IsAbs(c.Roots.Workspace) {
		errs = append(errs, fmt.Errorf("roots.workspace must be absolute, got %q", c.Roots.Workspace))
	}

	if c.Roots.Shared != "" && !filepath.IsAbs(c.Roots.Shared) {
		errs = append(errs, fmt.Errorf("roots.shared must be absolute, got %q", c.Roots.Shared))
	}

	if c.Bash.DefaultTimeout <= 0 {
		errs = append(errs, fmt.Errorf("bash.default_timeout must be > 0, got %s", c.Bash.DefaultTimeout))
	}

	if c.Server.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.idle_timeout must be > 0, got %s", c.Server.IdleTimeout))
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Addr == "" {
		errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
	}

	for _, v := range []struct {
		name  string
		value int
	}{
		{"limits.max_output_bytes", c.Limits.MaxOutputBytes},
		{"limits.max_read_lines", c.Limits.MaxReadLines},
		{"limits.max_read_bytes", c.Limits.MaxReadBytes},
		{"limits.max_list_entries", c.Limits.MaxListEntries},
		{"limits.max_glob_results", c.Limits.MaxGlobResults},
		{"limits.max_glob_scan", c.Limits.MaxGlobScan},
		{"limits.max_grep_matches", c.Limits.MaxGrepMatches},
		{"limits.max_grep_line_len", c.Limits.MaxGrepLineLen},
	} {
		if v.value < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %d", v.name, v.value))
		}
	}

	return errors.Join(errs...)
}
