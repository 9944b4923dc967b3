package builtin

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/Cyclone1070/drift/internal/tool/helper/content"
)

const (
	maxGrepFiles   = 500
	maxGrepMatches = 1000
	maxGrepLineLen = 500
)

type GrepParams struct {
	Pattern         string `mapstructure:"pattern"`
	Path            string `mapstructure:"path"`
	CaseInsensitive bool   `mapstructure:"case_insensitive"`
}

func (p *GrepParams) Validate() error {
	if p.Pattern == "" {
		return fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}
	return nil
}

// GrepTool searches file contents for a regular expression.
type GrepTool struct {
	tool.Base[GrepParams]
}

func NewGrepTool() *GrepTool {
	return &GrepTool{
		Base: tool.NewBase[GrepParams](
			"grep",
			"Search for a regex pattern in file contents. Returns matching lines grouped by file with line numbers.",
			tool.KindRead,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"pattern":          {Type: tool.TypeString, Description: "Regular expression (RE2 syntax) to search for"},
					"path":             {Type: tool.TypeString, Description: "File or directory to search in. Defaults to the working directory"},
					"case_insensitive": {Type: tool.TypeBoolean, Description: "Case-insensitive search. Defaults to false"},
				},
				Required: []string{"pattern"},
			},
		),
	}
}

func (t *GrepTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}
	if p.Path == "" {
		p.Path = "."
	}

	expr := p.Pattern
	if p.CaseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return tool.ErrorResult("Invalid regex pattern: %v", err), nil
	}

	abs, err := resolveInside(inv.Cwd, p.Path)
	if err != nil {
		return tool.ErrorResult("%v: %s", err, p.Path), nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		return tool.ErrorResult("Path does not exist: %s", abs), nil
	}

	var files []string
	if info.IsDir() {
		err = walkFiles(inv.Cwd, abs, loadIgnore(inv.Cwd), func(f, _ string) bool {
			files = append(files, f)
			return len(files) < maxGrepFiles && ctx.Err() == nil
		})
		if err != nil {
			return tool.ErrorResult("Error searching: %v", err), nil
		}
	} else {
		files = []string{abs}
	}

	var b strings.Builder
	matches := 0
	truncated := false
search:
	for _, f := range files {
		if ctx.Err() != nil {
			return tool.Result{}, ctx.Err()
		}
		data, err := os.ReadFile(f)
		if err != nil || content.IsBinary(data) {
			continue
		}
		header := false
		for i, line := range content.SplitLines(string(data)) {
			if !re.MatchString(line) {
				continue
			}
			if !header {
				fmt.Fprintf(&b, "=== %s ===\n", relative(inv.Cwd, f))
				header = true
			}
			if len(line) > maxGrepLineLen {
				line = line[:maxGrepLineLen] + "...[truncated]"
			}
			fmt.Fprintf(&b, "%d:%s\n", i+1, line)
			matches++
			if matches >= maxGrepMatches {
				truncated = true
				break search
			}
		}
		if header {
			b.WriteByte('\n')
		}
	}

	if matches == 0 {
		return tool.SuccessResult(fmt.Sprintf("No matches found for pattern '%s'", p.Pattern)).
			WithMetadata("matches", 0).
			WithMetadata("files_searched", len(files)), nil
	}

	out := strings.TrimRight(b.String(), "\n")
	if truncated {
		out += fmt.Sprintf("\n... [limited to %d matches]", maxGrepMatches)
	}
	res := tool.SuccessResult(out).
		WithMetadata("path", abs).
		WithMetadata("matches", matches).
		WithMetadata("files_searched", len(files))
	res.Truncated = truncated
	return res, nil
}
