package config

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Cwd         string
	Files       map[string][]byte
	Env         map[string]string
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) Getwd() (string, error) {
	return m.Cwd, nil
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *MockFileSystem) Getenv(key string) string {
	return m.Env[key]
}

func newMockFS(files map[string]string) *MockFileSystem {
	fs := &MockFileSystem{HomeDir: "/home/user", Cwd: "/work/project", Files: map[string][]byte{}}
	for k, v := range files {
		fs.Files[k] = []byte(v)
	}
	return fs
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	cfg, err := NewLoaderWithFS(newMockFS(nil)).Load()

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 256_000, cfg.Model.ContextWindow)
	assert.Equal(t, 100, cfg.MaxTurns)
	assert.Equal(t, "on-request", cfg.Approval)
	assert.Equal(t, "/work/project", cfg.Cwd)
	assert.Equal(t, []string{"*KEY*", "*TOKEN*", "*SECRET*"}, cfg.ShellEnvironment.ExcludePatterns)
}

func TestLoad_UserJSON_OverridesDefaults(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/home/user/.config/drift/config.json": `{
			"model": {"name": "gpt-4.1", "context_window": 128000},
			"max_turns": 7,
			"approval": "auto-edit"
		}`,
	})

	cfg, err := NewLoaderWithFS(fs).Load()

	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Model.Name)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 128000, cfg.Model.ContextWindow)
	assert.Equal(t, 7, cfg.MaxTurns)
	assert.Equal(t, "auto-edit", cfg.Approval)
}

func TestLoad_ProjectYAML_OverridesUserFile(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/home/user/.config/drift/config.yaml": "max_turns: 10\napproval: never\n",
		"/work/project/.drift/config.yaml": `
max_turns: 20
mcp_servers:
  files:
    command: mcp-files
    args: ["--root", "."]
hooks:
  - name: audit
    trigger: after_tool
    command: echo done
`,
	})

	cfg, err := NewLoaderWithFS(fs).Load()

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxTurns)
	assert.Equal(t, "never", cfg.Approval)
	require.Contains(t, cfg.MCPServers, "files")
	assert.Equal(t, []string{"--root", "."}, cfg.MCPServers["files"].Args)
	require.Len(t, cfg.Hooks, 1)
	assert.True(t, cfg.Hooks[0].IsEnabled())
}

func TestLoad_EnvOverridesAndAPIKey(t *testing.T) {
	fs := newMockFS(nil)
	fs.Env = map[string]string{
		"DRIFT_PROVIDER": "gemini",
		"DRIFT_MODEL":    "gemini-2.5-pro",
		"GEMINI_API_KEY": "g-key",
		"OPENAI_API_KEY": "o-key",
	}

	cfg, err := NewLoaderWithFS(fs).Load()

	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model.Name)
	assert.Equal(t, "g-key", cfg.Model.APIKey)
}

func TestLoad_ExplicitZeroOverridesDefault(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/home/user/.config/drift/config.json": `{"hooks_enabled": false}`,
	})

	cfg, err := NewLoaderWithFS(fs).Load()

	require.NoError(t, err)
	assert.False(t, cfg.HooksEnabled)
}

// --- ERROR PATH TESTS ---

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/home/user/.config/drift/config.json": `{"max_turns": `,
	})

	_, err := NewLoaderWithFS(fs).Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse /home/user/.config/drift/config.json")
}

func TestLoad_PermissionError_ReturnsError(t *testing.T) {
	fs := newMockFS(nil)
	fs.ReadFileErr = os.ErrPermission

	_, err := NewLoaderWithFS(fs).Load()

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestLoad_HomeDirError_StillLoadsProject(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/work/project/.drift/config.yaml": "max_turns: 3\n",
	})
	fs.HomeDirErr = errors.New("no home")

	cfg, err := NewLoaderWithFS(fs).Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxTurns)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.Provider = "llama"
	cfg.MaxTurns = 0
	cfg.Approval = "sometimes"
	cfg.Hooks = []HookConfig{{Trigger: "whenever"}}
	cfg.MCPServers = map[string]MCPServerConfig{"both": {Command: "x", URL: "http://y"}}

	err := cfg.Validate()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "config validation failed")
	assert.Contains(t, msg, "model.provider must be one of")
	assert.Contains(t, msg, "max_turns must be >= 1")
	assert.Contains(t, msg, "approval must be one of")
	assert.Contains(t, msg, "hooks[0].trigger must be one of")
	assert.Contains(t, msg, "hooks[0] must set exactly one of command or script")
	assert.Contains(t, msg, "mcp_servers.both must set exactly one of command or url")
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel(" TRACE ")
	require.NoError(t, err)
	assert.Equal(t, LevelTrace, lvl)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_RendersTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "trace", Format: "text"}, &buf)
	require.NoError(t, err)

	logger.Log(t.Context(), LevelTrace, "payload")

	assert.Contains(t, buf.String(), "level=TRACE")
	assert.Contains(t, buf.String(), "msg=payload")
}

func TestMCPServerConfig_StartupTimeoutDefault(t *testing.T) {
	assert.Equal(t, "10s", MCPServerConfig{}.StartupTimeout().String())
	assert.Equal(t, "3s", MCPServerConfig{StartupTimeoutSec: 3}.StartupTimeout().String())
}
