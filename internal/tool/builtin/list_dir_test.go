package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDir_SortsDirsFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.txt", "")
	writeFile(t, root, "A.txt", "")
	writeFile(t, root, "zdir/x", "")
	writeFile(t, root, ".hidden", "")

	res, err := NewListDirTool(toolsConfig()).Execute(context.Background(), invocation(root, map[string]any{}))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "zdir/\nA.txt\nb.txt", res.Output)
	assert.Equal(t, 3, res.Metadata["entries"])
}

func TestListDir_IncludeHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "")
	writeFile(t, root, "a", "")

	res, err := NewListDirTool(toolsConfig()).Execute(context.Background(), invocation(root, map[string]any{"include_hidden": true}))
	require.NoError(t, err)
	assert.Equal(t, ".env\na", res.Output)
}

func TestListDir_HonoursGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "# build output\nbuild/\n*.log\n")
	writeFile(t, root, "build/out", "")
	writeFile(t, root, "debug.log", "")
	writeFile(t, root, "main.go", "")
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	res, err := NewListDirTool(toolsConfig()).Execute(context.Background(), invocation(root, map[string]any{"include_hidden": true}))
	require.NoError(t, err)
	assert.Equal(t, ".gitignore\nmain.go", res.Output)
}

func TestListDir_Truncates(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c", "d"} {
		writeFile(t, root, n, "")
	}

	cfg := toolsConfig()
	cfg.MaxListEntries = 2
	res, err := NewListDirTool(cfg).Execute(context.Background(), invocation(root, map[string]any{}))
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, "a\nb\n... [2 more entries]", res.Output)
}

func TestListDir_Failures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file", "")
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	ld := NewListDirTool(toolsConfig())

	res, err := ld.Execute(context.Background(), invocation(root, map[string]any{"path": "missing"}))
	require.NoError(t, err)
	assert.Contains(t, res.Error, "Directory does not exist")

	res, err = ld.Execute(context.Background(), invocation(root, map[string]any{"path": "file"}))
	require.NoError(t, err)
	assert.Contains(t, res.Error, "Directory does not exist")

	res, err = ld.Execute(context.Background(), invocation(root, map[string]any{"path": "/"}))
	require.NoError(t, err)
	assert.Contains(t, res.Error, ErrOutsideWorkspace.Error())

	res, err = ld.Execute(context.Background(), invocation(root, map[string]any{"path": "empty"}))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Directory is empty", res.Output)
}
