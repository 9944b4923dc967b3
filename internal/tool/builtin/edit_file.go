package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/Cyclone1070/drift/internal/tool/helper/content"
)

type EditFileParams struct {
	Path       string `mapstructure:"path"`
	OldString  string `mapstructure:"old_string"`
	NewString  string `mapstructure:"new_string"`
	ReplaceAll bool   `mapstructure:"replace_all"`
}

func (p *EditFileParams) Validate() error {
	if p.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// EditFileTool replaces exact text in a file. An empty old_string on a
// missing file creates it.
type EditFileTool struct {
	tool.Base[EditFileParams]
	maxFileSize int64
}

func NewEditFileTool(cfg config.ToolsConfig) *EditFileTool {
	return &EditFileTool{
		Base: tool.NewBase[EditFileParams](
			"edit_file",
			"Edit a file by replacing text. The old_string must match exactly (including whitespace and indentation) "+
				"and must be unique in the file unless replace_all is true. Use this for precise, surgical edits. "+
				"For creating new files or complete rewrites, use write_file instead.",
			tool.KindWrite,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":        {Type: tool.TypeString, Description: "Path to the file to edit, relative to the working directory or absolute"},
					"old_string":  {Type: tool.TypeString, Description: "The exact text to find and replace. For new files, leave this empty"},
					"new_string":  {Type: tool.TypeString, Description: "The text to replace old_string with. Can be empty to delete text"},
					"replace_all": {Type: tool.TypeBoolean, Description: "Replace all occurrences of old_string (default: false)"},
				},
				Required: []string{"path", "new_string"},
			},
		),
		maxFileSize: cfg.MaxFileSize,
	}
}

// edit is a planned replacement on normalized (LF) content.
type edit struct {
	old, new string
	replaced int
	crlf     bool
}

// plan computes the replacement without touching the file. A non-empty
// message means the edit is rejected.
func plan(raw string, p EditFileParams, abs string) (edit, string) {
	e := edit{crlf: strings.Contains(raw, "\r\n")}
	e.old = strings.ReplaceAll(raw, "\r\n", "\n")
	before := strings.ReplaceAll(p.OldString, "\r\n", "\n")
	after := strings.ReplaceAll(p.NewString, "\r\n", "\n")

	if before == "" {
		return e, "old_string is empty but file exists. Provide old_string to edit, or use write_file to overwrite."
	}

	count := strings.Count(e.old, before)
	switch {
	case count == 0:
		return e, noMatchMessage(before, e.old, abs)
	case count > 1 && !p.ReplaceAll:
		return e, fmt.Sprintf("old_string found %d times in %s. Either: \n"+
			"1. Provide more context to make the match unique or\n"+
			"2. Set replace_all=true to replace all occurrences", count, abs)
	}

	if p.ReplaceAll {
		e.new = strings.ReplaceAll(e.old, before, after)
		e.replaced = count
	} else {
		e.new = strings.Replace(e.old, before, after, 1)
		e.replaced = 1
	}
	if e.new == e.old {
		return e, "No change made - old_string equals new_string"
	}
	return e, ""
}

func (t *EditFileTool) GetConfirmation(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return &tool.Confirmation{ToolName: t.Name(), Params: inv.Params, Description: "Edit file", IsDangerous: true}
	}
	abs := resolve(inv.Cwd, p.Path)

	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return &tool.Confirmation{
			ToolName:      t.Name(),
			Description:   "Create new file: " + abs,
			Params:        inv.Params,
			AffectedPaths: []string{abs},
			Diff:          &tool.FileDiff{Path: abs, NewContent: p.NewString, IsNewFile: true},
		}
	}

	c := &tool.Confirmation{
		ToolName:      t.Name(),
		Description:   "Edit file: " + abs,
		Params:        inv.Params,
		AffectedPaths: []string{abs},
	}
	if err == nil {
		if e, msg := plan(string(data), p, abs); msg == "" {
			c.Diff = &tool.FileDiff{Path: abs, OldContent: e.old, NewContent: e.new}
		}
	}
	return c
}

func (t *EditFileTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}
	abs := resolve(inv.Cwd, p.Path)

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return t.create(abs, p)
	}
	if err != nil {
		return tool.ErrorResult("Failed to stat %s: %v", abs, err), nil
	}
	if info.IsDir() {
		return tool.ErrorResult("%v: %s", ErrIsDirectory, abs), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return tool.ErrorResult("Failed to read file: %v", err), nil
	}

	e, msg := plan(string(data), p, abs)
	if msg != "" {
		return tool.ErrorResult("%s", msg), nil
	}

	out := e.new
	if e.crlf {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	if t.maxFileSize > 0 && int64(len(out)) > t.maxFileSize {
		return tool.ErrorResult("%v: %s would be %d bytes after edit (limit %d)", ErrFileTooLarge, abs, len(out), t.maxFileSize), nil
	}
	if err := writeFileAtomic(abs, []byte(out), info.Mode().Perm()); err != nil {
		return tool.ErrorResult("Failed to write file: %v", err), nil
	}

	lineDiff := len(content.SplitLines(e.new)) - len(content.SplitLines(e.old))
	var note string
	switch {
	case lineDiff > 0:
		note = fmt.Sprintf(" (+%d lines)", lineDiff)
	case lineDiff < 0:
		note = fmt.Sprintf(" (%d lines)", lineDiff)
	}

	res := tool.SuccessResult(fmt.Sprintf("Edited %s: replaced %d occurrence(s)%s", abs, e.replaced, note)).
		WithMetadata("path", abs).
		WithMetadata("replaced_count", e.replaced).
		WithMetadata("line_diff", lineDiff)
	res.Diff = &tool.FileDiff{Path: abs, OldContent: e.old, NewContent: e.new}
	return res, nil
}

func (t *EditFileTool) create(abs string, p EditFileParams) (tool.Result, error) {
	if p.OldString != "" {
		return tool.ErrorResult("File does not exist: %s. To create a new file, use an empty old_string.", abs), nil
	}
	if t.maxFileSize > 0 && int64(len(p.NewString)) > t.maxFileSize {
		return tool.ErrorResult("%v: content exceeds %d bytes", ErrFileTooLarge, t.maxFileSize), nil
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return tool.ErrorResult("Failed to create directory: %v", err), nil
	}
	if err := writeFileAtomic(abs, []byte(p.NewString), 0o644); err != nil {
		return tool.ErrorResult("Failed to write file: %v", err), nil
	}

	lines := len(content.SplitLines(p.NewString))
	res := tool.SuccessResult(fmt.Sprintf("Created %s %d lines", abs, lines)).
		WithMetadata("path", abs).
		WithMetadata("is_new_file", true).
		WithMetadata("lines", lines)
	res.Diff = &tool.FileDiff{Path: abs, NewContent: p.NewString, IsNewFile: true}
	return res, nil
}

// noMatchMessage suggests up to three lines containing the first word of
// the search text.
func noMatchMessage(before, text, abs string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "old_string not found in %s.", abs)

	var hints []string
	if words := strings.Fields(before); len(words) > 0 {
		for i, line := range strings.Split(text, "\n") {
			if strings.Contains(line, words[0]) {
				preview := strings.TrimSpace(line)
				if len(preview) > 80 {
					preview = preview[:80]
				}
				hints = append(hints, fmt.Sprintf("\n  Line %d: %s", i+1, preview))
				if len(hints) == 3 {
					break
				}
			}
		}
	}

	if len(hints) > 0 {
		b.WriteString("\n\nPossible similar lines:")
		for _, h := range hints {
			b.WriteString(h)
		}
		b.WriteString("\n\nMake sure old_string matches exactly (including whitespace and indentation).")
		return b.String()
	}
	b.WriteString(" Make sure the text matches exactly, including:\n" +
		"- All whitespace and indentation\n" +
		"- Line breaks\n" +
		"- Any invisible characters\n" +
		"Try re-reading the file using read_file tool and then editing.")
	return b.String()
}
