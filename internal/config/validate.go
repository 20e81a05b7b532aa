package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectRoot) == "" {
		return errors.New("project_root must be set")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir must be set")
	}
	if strings.ContainsAny(c.PayloadName, "/\\") {
		return fmt.Errorf("payload_name must be a bare file name, got %q", c.PayloadName)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	if c.HistoryLimit < 1 {
		return errors.New("history_limit must be at least 1")
	}
	if c.LLM.TimeoutSeconds < 1 {
		return errors.New("llm.timeout_seconds must be at least 1")
	}
	return nil
}
