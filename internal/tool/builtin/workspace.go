package builtin

import (
	"os"
	"path/filepath"
	"strings"
)

// resolve makes p absolute against cwd and cleans it. Absolute paths and
// a leading ~ are honoured.
func resolve(cwd, p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(cwd, p))
}

// within reports whether abs is root or a descendant of it.
func within(root, abs string) bool {
	root = filepath.Clean(root)
	return abs == root || strings.HasPrefix(abs, root+string(filepath.Separator))
}

// resolveInside resolves p and rejects results outside root.
func resolveInside(root, p string) (string, error) {
	abs := resolve(root, p)
	if !within(root, abs) {
		return "", ErrOutsideWorkspace
	}
	return abs, nil
}

// relative renders abs relative to root with forward slashes; root itself
// is ".".
func relative(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}
