package builtin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/drift/internal/tool/helper/content"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreMatcher applies the workspace .gitignore. The .git directory is
// always ignored.
type ignoreMatcher struct {
	matcher gitignore.Matcher
}

// loadIgnore reads <root>/.gitignore. A missing or unreadable file yields a
// matcher that only ignores .git.
func loadIgnore(root string) *ignoreMatcher {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return &ignoreMatcher{}
	}

	var patterns []gitignore.Pattern
	for _, line := range content.SplitLines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return &ignoreMatcher{matcher: gitignore.NewMatcher(patterns)}
}

// Ignored reports whether the slash-separated relative path should be
// skipped.
func (m *ignoreMatcher) Ignored(rel string, isDir bool) bool {
	segments := splitPath(rel)
	if len(segments) == 0 {
		return false
	}
	for _, s := range segments {
		if s == ".git" {
			return true
		}
	}
	if m.matcher == nil {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

// splitPath splits a path into segments for gitignore matching, dropping
// empty and "." segments.
func splitPath(p string) []string {
	var segments []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
