// Package render provides output renderers for dashboard patterns.
package render

import "github.com/tidewise/buildbot-ci/pkg/pattern"

// Renderer converts patterns to formatted output.
type Renderer interface {
	Render(patterns []pattern.Pattern) string
}

// Output formats accepted by ForFormat.
const (
	FormatTerminal = "terminal"
	FormatLLM      = "llm"
	FormatJSON     = "json"
)

// ForFormat returns the renderer for format. Terminal output uses theme and
// width.
func ForFormat(format string, theme Theme, width int) (Renderer, bool) {
	switch format {
	case FormatTerminal:
		return NewTerminal(theme, width), true
	case FormatLLM:
		return NewLLM(), true
	case FormatJSON:
		return NewJSON(), true
	default:
		return nil, false
	}
}
