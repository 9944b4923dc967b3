package builtin

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// skipDirs are pruned from every walk regardless of .gitignore.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// walkFiles calls fn for every regular, non-hidden, non-ignored file under
// start. rel is relative to root. fn returning false stops the walk.
func walkFiles(root, start string, ignore *ignoreMatcher, fn func(abs, rel string) bool) error {
	stop := false
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if stop {
			return fs.SkipAll
		}
		rel := relative(root, p)
		if p != start {
			if strings.HasPrefix(d.Name(), ".") || ignore.Ignored(rel, d.IsDir()) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			if p != start && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !fn(p, rel) {
			stop = true
			return fs.SkipAll
		}
		return nil
	})
	return err
}

// matchGlob matches a slash-separated path against pattern. "**" matches
// zero or more whole segments; other segments use path.Match.
func matchGlob(pattern, name string) (bool, error) {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, segs []string) (bool, error) {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			for i := 0; i <= len(segs); i++ {
				ok, err := matchSegments(rest, segs[i:])
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
		if len(segs) == 0 {
			return false, nil
		}
		ok, err := path.Match(pat[0], segs[0])
		if err != nil || !ok {
			return false, err
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0, nil
}
