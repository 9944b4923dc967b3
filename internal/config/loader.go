package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "drift"
	// ProjectDir is the per-project directory under the working directory
	ProjectDir = ".drift"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	Getwd() (string, error)
	ReadFile(path string) ([]byte, error)
	Getenv(key string) string
}

// osFileSystem implements FileSystem using the real OS
type osFileSystem struct{}

func (osFileSystem) UserHomeDir() (string, error)         { return os.UserHomeDir() }
func (osFileSystem) Getwd() (string, error)               { return os.Getwd() }
func (osFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
func (osFileSystem) Getenv(key string) string             { return os.Getenv(key) }

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: osFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load builds the configuration from, in increasing precedence:
//   - DefaultConfig()
//   - ~/.config/drift/config.json or ~/.config/drift/config.yaml
//   - <cwd>/.drift/config.yaml
//   - DRIFT_* and provider API key environment variables
//
// Missing files are skipped. Parse errors, permission errors and
// validation failures are returned.
//
// NOTE: Each file is decoded directly over the partially merged config, so
// explicit zero values in a file override earlier layers.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if homeDir, err := l.fs.UserHomeDir(); err == nil {
		dir := filepath.Join(homeDir, ".config", ConfigDir)
		for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
			loaded, err := l.mergeFile(cfg, filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			if loaded {
				break
			}
		}
	}

	cwd, err := l.fs.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}
	if _, err := l.mergeFile(cfg, filepath.Join(cwd, ProjectDir, "config.yaml")); err != nil {
		return nil, err
	}

	if cfg.Cwd == "" {
		cfg.Cwd = cwd
	}
	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg, reporting whether the file existed.
func (l *Loader) mergeFile(cfg *Config, path string) (bool, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	if v := l.fs.Getenv("DRIFT_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := l.fs.Getenv("DRIFT_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := l.fs.Getenv("DRIFT_APPROVAL"); v != "" {
		cfg.Approval = v
	}
	if v := l.fs.Getenv("DRIFT_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if cfg.Model.APIKey == "" {
		switch cfg.Model.Provider {
		case "gemini":
			cfg.Model.APIKey = l.fs.Getenv("GEMINI_API_KEY")
		default:
			cfg.Model.APIKey = l.fs.Getenv("OPENAI_API_KEY")
		}
	}
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}
