package safety

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// IsDangerousCommand reports whether command matches any dangerous pattern.
func IsDangerousCommand(command string) bool {
	return matchAny(dangerousPatterns, command)
}

// IsSafeCommand reports whether every simple command in command is a known
// read-only command. Pipelines, lists and substitutions are split with a
// shell parser, and writing redirections make the command unsafe. Input
// the parser rejects is matched as a single string.
func IsSafeCommand(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return matchAny(safePatterns, command)
	}

	printer := syntax.NewPrinter()
	calls := 0
	safe := true
	syntax.Walk(file, func(node syntax.Node) bool {
		if !safe {
			return false
		}
		switch n := node.(type) {
		case *syntax.Redirect:
			if writesFile(n) {
				safe = false
			}
		case *syntax.CallExpr:
			if len(n.Args) == 0 {
				return true
			}
			calls++
			var buf bytes.Buffer
			if err := printer.Print(&buf, &syntax.CallExpr{Args: n.Args}); err != nil {
				safe = false
				return false
			}
			if !matchAny(safePatterns, buf.String()) || hasUnsafeFlag(n) {
				safe = false
			}
		case *syntax.FuncDecl:
			safe = false
		}
		return true
	})

	return safe && calls > 0
}

// commandNames returns the sorted, deduplicated basenames of every simple
// command in command, including those inside substitutions. ok is false
// when a name is not a plain word, a redirection writes a file, or the
// input does not parse.
func commandNames(command string) (names []string, ok bool) {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, false
	}

	ok = true
	syntax.Walk(file, func(node syntax.Node) bool {
		if !ok {
			return false
		}
		switch n := node.(type) {
		case *syntax.Redirect:
			if writesFile(n) {
				ok = false
			}
		case *syntax.CallExpr:
			if len(n.Args) == 0 {
				return true
			}
			name := n.Args[0].Lit()
			if name == "" {
				ok = false
				return false
			}
			names = append(names, filepath.Base(name))
		case *syntax.FuncDecl:
			ok = false
		}
		return true
	})
	if !ok || len(names) == 0 {
		return nil, false
	}
	slices.Sort(names)
	return slices.Compact(names), true
}

func writesFile(r *syntax.Redirect) bool {
	switch r.Op {
	case syntax.RdrOut, syntax.AppOut, syntax.RdrAll, syntax.AppAll, syntax.ClbOut:
		target := ""
		if r.Word != nil {
			target = r.Word.Lit()
		}
		return target != "/dev/null"
	default:
		return false
	}
}

func hasUnsafeFlag(call *syntax.CallExpr) bool {
	flags, ok := unsafeFlags[call.Args[0].Lit()]
	if !ok {
		return false
	}
	for _, arg := range call.Args[1:] {
		lit := arg.Lit()
		for _, f := range flags {
			if lit == f || (strings.HasPrefix(f, "-i") && strings.HasPrefix(lit, f)) {
				return true
			}
		}
	}
	return false
}
