package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/stretchr/testify/assert"
)

func TestFormatToolDescription(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"read", "read_file", map[string]any{"path": "internal/main.go"}, "read_file internal/main.go"},
		{"list default", "list_dir", map[string]any{}, "list_dir ."},
		{"grep", "grep", map[string]any{"pattern": "func main"}, "grep 'func main'"},
		{"shell", "shell", map[string]any{"command": "go test ./..."}, "shell 'go test ./...'"},
		{"shell multiline", "shell", map[string]any{"command": "cd x\nmake"}, "shell 'cd x ...'"},
		{"subagent", "subagent_code_reviewer", map[string]any{"goal": "review loop.go"}, "code_reviewer: review loop.go"},
		{"unknown", "docs__search", map[string]any{"q": "x"}, "docs__search"},
		{"missing arg", "read_file", map[string]any{}, "read_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatToolDescription(tt.tool, tt.args))
		})
	}
}

func TestFormatResultSummary(t *testing.T) {
	zero := 0
	assert.Equal(t, "done", FormatResultSummary(tool.SuccessResult("")))
	assert.Equal(t, "Created a.go (3 lines)", FormatResultSummary(tool.SuccessResult("Created a.go (3 lines)")))
	assert.Equal(t, "3 lines", FormatResultSummary(tool.SuccessResult("a\nb\nc")))
	assert.Equal(t, "exit 0", FormatResultSummary(tool.Result{Success: true, Output: "x\ny", ExitCode: &zero}))
	assert.Equal(t, "bad ...", FormatResultSummary(tool.ErrorResult("bad\nworse")))
	assert.Equal(t, strings.Repeat("x", maxSummaryLen)+"...", FormatResultSummary(tool.SuccessResult(strings.Repeat("x", 200))))
}

type stubRenderer struct {
	out string
	err error
}

func (s stubRenderer) Render(content string, width int) (string, error) {
	return s.out, s.err
}

func TestRenderMarkdown_Fallbacks(t *testing.T) {
	assert.Equal(t, "# hi", RenderMarkdown("# hi", 80, nil))
	assert.Equal(t, "# hi", RenderMarkdown("# hi", 80, stubRenderer{err: errors.New("bad")}))
	assert.Equal(t, "HI", RenderMarkdown("# hi", 80, stubRenderer{out: "HI"}))
}

func TestGlamourRenderer(t *testing.T) {
	g := NewGlamourRenderer("ascii")
	out, err := g.Render("**bold** text", 40)
	assert.NoError(t, err)
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "text")
	assert.Len(t, g.renderers, 1)
}
