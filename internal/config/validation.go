package config

import (
	"fmt"
	"slices"
	"sort"
)

var (
	validProviders = []string{"openai", "gemini"}
	validApprovals = []string{"on-request", "on-failure", "auto", "auto-edit", "never", "yolo"}
	validTriggers  = []string{"before_agent", "after_agent", "before_tool", "after_tool", "on_error"}
	validFormats   = []string{"text", "json"}
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validProviders, c.Model.Provider) {
		errs = append(errs, fmt.Sprintf("model.provider must be one of %v", validProviders))
	}
	if c.Model.Name == "" {
		errs = append(errs, "model.name is required")
	}
	if c.Model.ContextWindow < 1 {
		errs = append(errs, "model.context_window must be >= 1")
	}
	if c.Model.MaxRetries < 0 {
		errs = append(errs, "model.max_retries must be >= 0")
	}
	if t := c.Model.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, "model.temperature must be between 0 and 2")
	}
	if c.MaxTurns < 1 {
		errs = append(errs, "max_turns must be >= 1")
	}
	if !slices.Contains(validApprovals, c.Approval) {
		errs = append(errs, fmt.Sprintf("approval must be one of %v", validApprovals))
	}

	for i, h := range c.Hooks {
		if !slices.Contains(validTriggers, h.Trigger) {
			errs = append(errs, fmt.Sprintf("hooks[%d].trigger must be one of %v", i, validTriggers))
		}
		if (h.Command == "") == (h.Script == "") {
			errs = append(errs, fmt.Sprintf("hooks[%d] must set exactly one of command or script", i))
		}
		if h.TimeoutSeconds < 0 {
			errs = append(errs, fmt.Sprintf("hooks[%d].timeout_sec must be >= 0", i))
		}
	}

	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := c.MCPServers[name]
		if (s.Command == "") == (s.URL == "") {
			errs = append(errs, fmt.Sprintf("mcp_servers.%s must set exactly one of command or url", name))
		}
		if s.StartupTimeoutSec < 0 {
			errs = append(errs, fmt.Sprintf("mcp_servers.%s.startup_timeout_sec must be >= 0", name))
		}
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level: "+err.Error())
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		errs = append(errs, fmt.Sprintf("log.format must be one of %v", validFormats))
	}

	if c.Tools.MaxFileSize < 1 {
		errs = append(errs, "tools.max_file_size must be >= 1")
	}
	if c.Tools.DefaultShellTimeout < 1 {
		errs = append(errs, "tools.default_shell_timeout must be >= 1")
	}
	if c.Tools.DefaultShellTimeout > c.Tools.MaxShellTimeout {
		errs = append(errs, "tools.default_shell_timeout must be <= tools.max_shell_timeout")
	}
	if c.Tools.MaxOutputBytes < 1 {
		errs = append(errs, "tools.max_output_bytes must be >= 1")
	}
	if c.Tools.MaxListEntries < 1 {
		errs = append(errs, "tools.max_list_entries must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
