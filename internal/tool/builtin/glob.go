package builtin

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/Cyclone1070/drift/internal/tool"
)

const maxGlobResults = 1000

type GlobParams struct {
	Pattern string `mapstructure:"pattern"`
	Path    string `mapstructure:"path"`
}

func (p *GlobParams) Validate() error {
	if p.Pattern == "" {
		return fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}
	if _, err := path.Match(strings.ReplaceAll(p.Pattern, "**", "*"), ""); err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidPattern, p.Pattern, err)
	}
	return nil
}

// GlobTool finds files by name pattern.
type GlobTool struct {
	tool.Base[GlobParams]
}

func NewGlobTool() *GlobTool {
	return &GlobTool{
		Base: tool.NewBase[GlobParams](
			"glob",
			"Find files matching a glob pattern such as '**/*.go' or 'cmd/*/main.go'. "+
				"Paths are returned relative to the working directory.",
			tool.KindRead,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"pattern": {Type: tool.TypeString, Description: "Glob pattern, relative to path. ** matches any number of directories"},
					"path":    {Type: tool.TypeString, Description: "Directory to search from. Defaults to the working directory"},
				},
				Required: []string{"pattern"},
			},
		),
	}
}

func (t *GlobTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}
	if p.Path == "" {
		p.Path = "."
	}

	abs, err := resolveInside(inv.Cwd, p.Path)
	if err != nil {
		return tool.ErrorResult("%v: %s", err, p.Path), nil
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return tool.ErrorResult("Directory does not exist: %s", abs), nil
	}

	var matches []string
	var matchErr error
	total := 0
	err = walkFiles(inv.Cwd, abs, loadIgnore(inv.Cwd), func(f, rel string) bool {
		ok, err := matchGlob(p.Pattern, relative(abs, f))
		if err != nil {
			matchErr = err
			return false
		}
		if ok {
			total++
			if len(matches) < maxGlobResults {
				matches = append(matches, rel)
			}
		}
		return ctx.Err() == nil
	})
	if matchErr != nil {
		return tool.ErrorResult("%v %s: %v", ErrInvalidPattern, p.Pattern, matchErr), nil
	}
	if err != nil {
		return tool.ErrorResult("Error searching: %v", err), nil
	}
	if err := ctx.Err(); err != nil {
		return tool.Result{}, err
	}

	if total == 0 {
		return tool.SuccessResult(fmt.Sprintf("No files match '%s'", p.Pattern)).WithMetadata("matches", 0), nil
	}

	out := strings.Join(matches, "\n")
	truncated := total > len(matches)
	if truncated {
		out += fmt.Sprintf("\n...(limited to %d results)", maxGlobResults)
	}
	res := tool.SuccessResult(out).WithMetadata("path", abs).WithMetadata("matches", total)
	res.Truncated = truncated
	return res, nil
}
