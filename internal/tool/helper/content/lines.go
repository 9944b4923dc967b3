package content

import (
	"fmt"
	"strings"
)

// SplitLines splits on \n and \r\n. A trailing line ending does not produce
// an empty final element.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return strings.Split(s, "\n")
}

// Window is a contiguous, 1-based range of lines.
type Window struct {
	Lines []string
	First int
	Last  int
	Total int
}

// Slice selects limit lines starting at the 1-based offset. A non-positive
// offset means 1 and a non-positive limit means all remaining lines.
func Slice(lines []string, offset, limit int) Window {
	total := len(lines)
	if offset < 1 {
		offset = 1
	}
	if offset > total {
		return Window{First: offset, Last: offset - 1, Total: total}
	}
	end := total
	if limit > 0 && offset-1+limit < total {
		end = offset - 1 + limit
	}
	return Window{Lines: lines[offset-1 : end], First: offset, Last: end, Total: total}
}

// Numbered renders the window with right-aligned line numbers.
func (w Window) Numbered() string {
	width := len(fmt.Sprint(w.Last))
	var b strings.Builder
	for i, l := range w.Lines {
		fmt.Fprintf(&b, "%*d\t%s\n", width, w.First+i, l)
	}
	return b.String()
}

// Partial reports whether lines outside the window exist.
func (w Window) Partial() bool {
	return w.First > 1 || w.Last < w.Total
}
