package app

import (
	"strings"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

// markdownRenderer caches one glamour renderer per width and background.
// It is owned by a single Model and never shared across goroutines.
type markdownRenderer struct {
	enabled bool
	dark    bool
	cache   map[markdownKey]*glamour.TermRenderer
}

type markdownKey struct {
	width int
	dark  bool
}

func newMarkdownRenderer(enabled bool) *markdownRenderer {
	return &markdownRenderer{
		enabled: enabled,
		dark:    true,
		cache:   map[markdownKey]*glamour.TermRenderer{},
	}
}

// SetDark reports whether the background changed.
func (r *markdownRenderer) SetDark(dark bool) bool {
	changed := r.dark != dark
	r.dark = dark
	return changed
}

// Render formats input for width columns, falling back to hard-wrapped plain
// text when markdown is disabled or glamour fails.
func (r *markdownRenderer) Render(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	if !r.enabled {
		return xansi.Hardwrap(input, width, true)
	}
	renderer := r.renderer(width)
	if renderer == nil {
		return xansi.Hardwrap(input, width, true)
	}
	out, err := renderer.Render(input)
	if err != nil {
		return xansi.Hardwrap(input, width, true)
	}
	out = xansi.Hardwrap(strings.TrimRight(out, "\n"), width, true)
	return strings.TrimRight(out, "\n")
}

func (r *markdownRenderer) renderer(width int) *glamour.TermRenderer {
	key := markdownKey{width: width, dark: r.dark}
	if cached, ok := r.cache[key]; ok {
		return cached
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(markdownStyle(r.dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	r.cache[key] = renderer
	return renderer
}

func markdownStyle(dark bool) glamouransi.StyleConfig {
	base := styles.LightStyleConfig
	if dark {
		base = styles.DarkStyleConfig
	}
	// Bubble padding comes from lipgloss, not from glamour margins.
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	return base
}
