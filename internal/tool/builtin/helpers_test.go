package builtin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, data string) string {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(data), 0o644))
	return abs
}

func invocation(cwd string, params map[string]any) tool.Invocation {
	return tool.Invocation{Params: params, Cwd: cwd}
}

func toolsConfig() config.ToolsConfig {
	return config.DefaultConfig().Tools
}
