package config

import "time"

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Model                 ModelConfig                `json:"model" yaml:"model"`
	Cwd                   string                     `json:"cwd" yaml:"cwd"`
	MaxTurns              int                        `json:"max_turns" yaml:"max_turns"`
	Approval              string                     `json:"approval" yaml:"approval"`
	HooksEnabled          bool                       `json:"hooks_enabled" yaml:"hooks_enabled"`
	Hooks                 []HookConfig               `json:"hooks" yaml:"hooks"`
	MCPServers            map[string]MCPServerConfig `json:"mcp_servers" yaml:"mcp_servers"`
	ShellEnvironment      ShellEnvironmentConfig     `json:"shell_environment" yaml:"shell_environment"`
	AllowedTools          []string                   `json:"allowed_tools" yaml:"allowed_tools"`
	DeveloperInstructions string                     `json:"developer_instructions" yaml:"developer_instructions"`
	UserInstructions      string                     `json:"user_instructions" yaml:"user_instructions"`
	Log                   LogConfig                  `json:"log" yaml:"log"`
	Session               SessionConfig              `json:"session" yaml:"session"`
	Tools                 ToolsConfig                `json:"tools" yaml:"tools"`
}

type ModelConfig struct {
	Provider      string   `json:"provider" yaml:"provider"` // "openai" or "gemini"
	Name          string   `json:"name" yaml:"name"`
	Temperature   *float32 `json:"temperature" yaml:"temperature"`
	ContextWindow int      `json:"context_window" yaml:"context_window"`
	BaseURL       string   `json:"base_url" yaml:"base_url"`
	APIKey        string   `json:"api_key" yaml:"api_key"`
	MaxRetries    int      `json:"max_retries" yaml:"max_retries"`
}

type HookConfig struct {
	Name           string `json:"name" yaml:"name"`
	Trigger        string `json:"trigger" yaml:"trigger"`
	Command        string `json:"command" yaml:"command"`
	Script         string `json:"script" yaml:"script"`
	TimeoutSeconds int    `json:"timeout_sec" yaml:"timeout_sec"`
	Enabled        *bool  `json:"enabled" yaml:"enabled"`
}

// IsEnabled treats a missing enabled key as true.
func (h HookConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

type MCPServerConfig struct {
	Command           string            `json:"command" yaml:"command"`
	Args              []string          `json:"args" yaml:"args"`
	Env               map[string]string `json:"env" yaml:"env"`
	URL               string            `json:"url" yaml:"url"`
	Transport         string            `json:"transport" yaml:"transport"` // stdio, http or sse
	Headers           map[string]string `json:"headers" yaml:"headers"`
	StartupTimeoutSec int               `json:"startup_timeout_sec" yaml:"startup_timeout_sec"`
	Enabled           *bool             `json:"enabled" yaml:"enabled"`
}

func (m MCPServerConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// StartupTimeout defaults to 10 seconds.
func (m MCPServerConfig) StartupTimeout() time.Duration {
	if m.StartupTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.StartupTimeoutSec) * time.Second
}

type ShellEnvironmentConfig struct {
	ExcludePatterns []string          `json:"exclude_patterns" yaml:"exclude_patterns"`
	Set             map[string]string `json:"set" yaml:"set"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text or json
	File   string `json:"file" yaml:"file"`
}

type SessionConfig struct {
	StorePath string `json:"store_path" yaml:"store_path"` // empty disables persistence
}

type ToolsConfig struct {
	MaxFileSize         int64 `json:"max_file_size" yaml:"max_file_size"`                 // Default: 10MB
	DefaultShellTimeout int   `json:"default_shell_timeout" yaml:"default_shell_timeout"` // Default: 120 seconds
	MaxShellTimeout     int   `json:"max_shell_timeout" yaml:"max_shell_timeout"`         // Default: 600 seconds
	MaxOutputBytes      int   `json:"max_output_bytes" yaml:"max_output_bytes"`           // Default: 100KB
	MaxListEntries      int   `json:"max_list_entries" yaml:"max_list_entries"`           // Default: 1000
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:      "openai",
			Name:          "gpt-4o",
			ContextWindow: 256_000,
			MaxRetries:    3,
		},
		MaxTurns:     100,
		Approval:     "on-request",
		HooksEnabled: true,
		MCPServers:   map[string]MCPServerConfig{},
		ShellEnvironment: ShellEnvironmentConfig{
			ExcludePatterns: []string{"*KEY*", "*TOKEN*", "*SECRET*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tools: ToolsConfig{
			MaxFileSize:         10 * 1024 * 1024,
			DefaultShellTimeout: 120,
			MaxShellTimeout:     600,
			MaxOutputBytes:      100 * 1024,
			MaxListEntries:      1000,
		},
	}
}
