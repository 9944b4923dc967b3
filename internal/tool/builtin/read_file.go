package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/Cyclone1070/drift/internal/tool/helper/content"
	"github.com/dustin/go-humanize"
)

type ReadFileParams struct {
	Path   string `mapstructure:"path"`
	Offset int    `mapstructure:"offset"`
	Limit  int    `mapstructure:"limit"`
}

func (p *ReadFileParams) Validate() error {
	if p.Offset < 0 {
		return errors.New("offset must be >= 1")
	}
	if p.Limit < 0 {
		return errors.New("limit must be >= 1")
	}
	return nil
}

// ReadFileTool reads text files inside the workspace with line numbers.
type ReadFileTool struct {
	tool.Base[ReadFileParams]
	maxFileSize    int64
	maxOutputBytes int
}

func NewReadFileTool(cfg config.ToolsConfig) *ReadFileTool {
	return &ReadFileTool{
		Base: tool.NewBase[ReadFileParams](
			"read_file",
			"Read the contents of a text file. Returns the file content with line numbers. "+
				"For large files, use offset and limit to read specific portions. "+
				"Cannot read binary files.",
			tool.KindRead,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":   {Type: tool.TypeString, Description: "Path to the file, relative to the working directory or absolute"},
					"offset": {Type: tool.TypeInteger, Description: "Line number to start reading from (1-based). Defaults to 1"},
					"limit":  {Type: tool.TypeInteger, Description: "Maximum number of lines to read. Defaults to the whole file"},
				},
				Required: []string{"path"},
			},
		),
		maxFileSize:    cfg.MaxFileSize,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}

	abs, err := resolveInside(inv.Cwd, p.Path)
	if err != nil {
		return tool.ErrorResult("%v: %s", err, p.Path), nil
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return tool.ErrorResult("File not found: %s", abs), nil
	}
	if err != nil {
		return tool.ErrorResult("Failed to stat file: %v", err), nil
	}
	if info.IsDir() {
		return tool.ErrorResult("%v: %s", ErrIsDirectory, abs), nil
	}
	if t.maxFileSize > 0 && info.Size() > t.maxFileSize {
		return tool.ErrorResult("%v: %s (maximum %s)", ErrFileTooLarge,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(t.maxFileSize))), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return tool.ErrorResult("Failed to read file: %v", err), nil
	}
	if content.IsBinary(data) {
		return tool.ErrorResult("Cannot read binary file: %s (%s). This tool only reads text files.",
			info.Name(), humanize.IBytes(uint64(info.Size()))), nil
	}

	lines := content.SplitLines(string(data))
	if len(lines) == 0 {
		return tool.SuccessResult("File is empty.").WithMetadata("total_lines", 0), nil
	}

	w := content.Slice(lines, p.Offset, p.Limit)
	if len(w.Lines) == 0 {
		return tool.ErrorResult("Offset %d is beyond the end of the file (%d lines)", w.First, w.Total), nil
	}

	out := w.Numbered()
	truncated := false
	if t.maxOutputBytes > 0 && len(out) > t.maxOutputBytes {
		out = out[:t.maxOutputBytes] + fmt.Sprintf("\n... [truncated, %d total lines]", w.Total)
		truncated = true
	}
	if w.Partial() {
		out = fmt.Sprintf("Showing lines %d-%d of %d\n\n", w.First, w.Last, w.Total) + out
	}

	res := tool.SuccessResult(out).
		WithMetadata("path", abs).
		WithMetadata("total_lines", w.Total).
		WithMetadata("shown_start", w.First).
		WithMetadata("shown_end", w.Last)
	res.Truncated = truncated
	return res, nil
}
