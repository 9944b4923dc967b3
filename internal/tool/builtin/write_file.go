package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/Cyclone1070/drift/internal/tool/helper/content"
)

type WriteFileParams struct {
	Path              string `mapstructure:"path"`
	Content           string `mapstructure:"content"`
	CreateDirectories *bool  `mapstructure:"create_directories"`
}

func (p *WriteFileParams) Validate() error {
	if p.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

func (p *WriteFileParams) createDirectories() bool {
	return p.CreateDirectories == nil || *p.CreateDirectories
}

// WriteFileTool creates or overwrites files. Every call is confirmed with a
// diff; overwriting an existing file is flagged dangerous.
type WriteFileTool struct {
	tool.Base[WriteFileParams]
	maxFileSize int64
}

func NewWriteFileTool(cfg config.ToolsConfig) *WriteFileTool {
	return &WriteFileTool{
		Base: tool.NewBase[WriteFileParams](
			"write_file",
			"Write content to a file. Creates the file if it doesn't exist, or overwrites it if it does. "+
				"Parent directories are created automatically. Use this for new files or complete rewrites.",
			tool.KindWrite,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":               {Type: tool.TypeString, Description: "Path to the file, relative to the working directory or absolute"},
					"content":            {Type: tool.TypeString, Description: "Content to write to the file"},
					"create_directories": {Type: tool.TypeBoolean, Description: "Create parent directories if they don't exist. Defaults to true"},
				},
				Required: []string{"path", "content"},
			},
		),
		maxFileSize: cfg.MaxFileSize,
	}
}

// current returns the existing content of abs, or isNew when there is none.
func current(abs string) (old string, isNew bool) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", errors.Is(err, os.ErrNotExist)
	}
	return string(data), false
}

func (t *WriteFileTool) GetConfirmation(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return &tool.Confirmation{ToolName: t.Name(), Params: inv.Params, Description: "Write file", IsDangerous: true}
	}
	abs := resolve(inv.Cwd, p.Path)
	old, isNew := current(abs)

	action := "Update"
	if isNew {
		action = "Create"
	}
	return &tool.Confirmation{
		ToolName:      t.Name(),
		Description:   fmt.Sprintf("%s file: %s", action, abs),
		Params:        inv.Params,
		AffectedPaths: []string{abs},
		IsDangerous:   !isNew,
		Diff: &tool.FileDiff{
			Path:       abs,
			OldContent: old,
			NewContent: p.Content,
			IsNewFile:  isNew,
		},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}
	if t.maxFileSize > 0 && int64(len(p.Content)) > t.maxFileSize {
		return tool.ErrorResult("%v: content exceeds %d bytes", ErrFileTooLarge, t.maxFileSize), nil
	}

	abs := resolve(inv.Cwd, p.Path)
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return tool.ErrorResult("%v: %s", ErrIsDirectory, abs), nil
	}
	old, isNew := current(abs)

	dir := filepath.Dir(abs)
	if p.createDirectories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return tool.ErrorResult("Failed to create directory: %v", err), nil
		}
	} else if _, err := os.Stat(dir); err != nil {
		return tool.ErrorResult("Parent directory does not exist: %s", dir), nil
	}

	if err := writeFileAtomic(abs, []byte(p.Content), fileMode(abs, 0o644)); err != nil {
		return tool.ErrorResult("Failed to write file: %v", err), nil
	}

	action := "Updated"
	if isNew {
		action = "Created"
	}
	lines := len(content.SplitLines(p.Content))
	res := tool.SuccessResult(fmt.Sprintf("%s %s (%d lines)", action, abs, lines)).
		WithMetadata("path", abs).
		WithMetadata("is_new_file", isNew).
		WithMetadata("lines", lines).
		WithMetadata("bytes", len(p.Content))
	res.Diff = &tool.FileDiff{Path: abs, OldContent: old, NewContent: p.Content, IsNewFile: isNew}
	return res, nil
}
