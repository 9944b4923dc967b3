package tool

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// FileDiff is a pending change to one file.
type FileDiff struct {
	Path       string
	OldContent string
	NewContent string
	IsNewFile  bool
	IsDeletion bool
}

// Unified renders the change as a unified diff with three lines of context.
func (d FileDiff) Unified() string {
	from, to := d.Path, d.Path
	if d.IsNewFile {
		from = "/dev/null"
	}
	if d.IsDeletion {
		to = "/dev/null"
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(d.OldContent),
		B:        splitLines(d.NewContent),
		FromFile: from,
		ToFile:   to,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return out
}

// Stats counts added and removed lines.
func (d FileDiff) Stats() (added, removed int) {
	for _, line := range strings.Split(d.Unified(), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// splitLines keeps line endings and terminates the last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}
