package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders the help overlay and feed descriptions, recreating
// the glamour renderer only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < 28 {
		wrapWidth = 28
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}
