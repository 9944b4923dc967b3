package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
)

type ListDirParams struct {
	Path          string `mapstructure:"path"`
	IncludeHidden bool   `mapstructure:"include_hidden"`
}

// ListDirTool lists one directory level, skipping gitignored entries.
type ListDirTool struct {
	tool.Base[ListDirParams]
	maxEntries int
}

func NewListDirTool(cfg config.ToolsConfig) *ListDirTool {
	return &ListDirTool{
		Base: tool.NewBase[ListDirParams](
			"list_dir",
			"List the contents of a directory. Directories are listed first with a trailing slash. "+
				"Entries matched by the workspace .gitignore are skipped.",
			tool.KindRead,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":           {Type: tool.TypeString, Description: "Directory to list. Defaults to the working directory"},
					"include_hidden": {Type: tool.TypeBoolean, Description: "Include entries starting with a dot. Defaults to false"},
				},
			},
		),
		maxEntries: cfg.MaxListEntries,
	}
}

func (t *ListDirTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
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
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return tool.ErrorResult("Directory does not exist: %s", abs), nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return tool.ErrorResult("Error listing directory: %v", err), nil
	}

	ignore := loadIgnore(inv.Cwd)
	kept := make([]os.DirEntry, 0, len(entries))
	for _, e := range entries {
		if !p.IncludeHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ignore.Ignored(relative(inv.Cwd, filepath.Join(abs, e.Name())), e.IsDir()) {
			continue
		}
		kept = append(kept, e)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].IsDir() != kept[j].IsDir() {
			return kept[i].IsDir()
		}
		return strings.ToLower(kept[i].Name()) < strings.ToLower(kept[j].Name())
	})

	if len(kept) == 0 {
		return tool.SuccessResult("Directory is empty").WithMetadata("path", abs).WithMetadata("entries", 0), nil
	}

	total := len(kept)
	truncated := false
	if t.maxEntries > 0 && total > t.maxEntries {
		kept = kept[:t.maxEntries]
		truncated = true
	}

	var b strings.Builder
	for _, e := range kept {
		b.WriteString(e.Name())
		if e.IsDir() {
			b.WriteByte('/')
		}
		b.WriteByte('\n')
	}
	out := strings.TrimSuffix(b.String(), "\n")
	if truncated {
		out += fmt.Sprintf("\n... [%d more entries]", total-len(kept))
	}

	res := tool.SuccessResult(out).WithMetadata("path", abs).WithMetadata("entries", total)
	res.Truncated = truncated
	return res, nil
}
