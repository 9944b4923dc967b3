package services

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// GlamourRenderer renders markdown with glamour, caching one renderer per
// width.
type GlamourRenderer struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer using the named glamour style
// ("dark", "light", "ascii", ...). An empty style selects "auto".
func NewGlamourRenderer(style string) *GlamourRenderer {
	if style == "" {
		style = "auto"
	}
	return &GlamourRenderer{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

func (g *GlamourRenderer) Render(content string, width int) (string, error) {
	r, err := g.renderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

func (g *GlamourRenderer) renderer(width int) (*glamour.TermRenderer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.renderers[width]; ok {
		return r, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if g.style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(g.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	g.renderers[width] = r
	return r, nil
}

type renderer interface {
	Render(content string, width int) (string, error)
}

// RenderMarkdown renders content, falling back to the raw text when there is
// no renderer or rendering fails.
func RenderMarkdown(content string, width int, r renderer) string {
	if r == nil || strings.TrimSpace(content) == "" {
		return content
	}
	out, err := r.Render(content, width)
	if err != nil {
		return content
	}
	return out
}
