package builtin

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Cyclone1070/drift/internal/config"
)

// shellEnv builds the child environment: base minus variables whose
// uppercased name matches an exclude glob, plus the configured overrides.
func shellEnv(base []string, cfg config.ShellEnvironmentConfig) []string {
	env := make([]string, 0, len(base)+len(cfg.Set))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if excluded(name, cfg.ExcludePatterns) {
			continue
		}
		if _, overridden := cfg.Set[name]; overridden {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(cfg.Set))
	for k := range cfg.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+cfg.Set[k])
	}
	return env
}

func excluded(name string, patterns []string) bool {
	upper := strings.ToUpper(name)
	for _, p := range patterns {
		if ok, err := path.Match(strings.ToUpper(p), upper); err == nil && ok {
			return true
		}
	}
	return false
}

func environ() []string {
	return os.Environ()
}
