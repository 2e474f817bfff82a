package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tidewise/buildbot-ci/pkg/pattern"
)

// Terminal renders patterns as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Render formats all patterns for terminal display.
func (t *Terminal) Render(patterns []pattern.Pattern) string {
	var sections []string
	for _, p := range patterns {
		s := t.renderOne(p)
		if s != "" {
			sections = append(sections, s)
		}
	}
	return strings.Join(sections, "\n")
}

func (t *Terminal) renderOne(p pattern.Pattern) string {
	switch v := p.(type) {
	case *pattern.Summary:
		return t.renderSummary(v)
	case *pattern.Leaderboard:
		return t.renderLeaderboard(v)
	case *pattern.TestTable:
		return t.renderTestTable(v)
	default:
		return ""
	}
}

func (t *Terminal) renderSummary(s *pattern.Summary) string {
	var sb strings.Builder
	if s.Label != "" {
		label := s.Label
		if s.Kind == pattern.SummaryKindDashboard {
			label = t.theme.Primary.Render(label)
		}
		sb.WriteString(t.theme.Bold.Render(label))
		sb.WriteString("\n")
	}
	if s.Kind == pattern.SummaryKindBuild {
		// Build summaries fit on one line: "  ✗ build failed 2  ✓ test 1"
		if len(s.Metrics) == 0 {
			return sb.String()
		}
		sb.WriteString(" ")
		for _, m := range s.Metrics {
			icon, style := t.iconStyle(m.Kind)
			sb.WriteString(" " + style.Render(icon+" "+m.Label+" "+m.Value))
		}
		sb.WriteString("\n")
		return sb.String()
	}
	for _, m := range s.Metrics {
		sb.WriteString("  ")
		icon, style := t.iconStyle(m.Kind)
		sb.WriteString(style.Render(icon + " " + m.Label + ": " + m.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderLeaderboard(l *pattern.Leaderboard) string {
	if len(l.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	if l.Label != "" {
		header := l.Label
		if l.TotalCount > len(l.Items) {
			header += fmt.Sprintf(" (top %d of %d)", len(l.Items), l.TotalCount)
		}
		sb.WriteString(t.theme.Bold.Render(header))
		sb.WriteString("\n")
	}

	maxName, maxMetric := 0, 0
	for _, item := range l.Items {
		maxName = max(maxName, runewidth.StringWidth(item.Name))
		maxMetric = max(maxMetric, runewidth.StringWidth(item.Metric))
	}
	maxName = min(maxName, t.width/2)

	for _, item := range l.Items {
		sb.WriteString("  ")
		if l.ShowRank {
			sb.WriteString(t.theme.Muted.Render(fmt.Sprintf("%2d. ", item.Rank)))
		}
		name := runewidth.Truncate(item.Name, maxName, "...")
		sb.WriteString(t.theme.Primary.Render(padRight(name, maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Error.Render(padLeft(item.Metric, maxMetric)))
		if item.Context != "" {
			sb.WriteString(t.theme.Muted.Render("  " + item.Context))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) renderTestTable(tt *pattern.TestTable) string {
	if len(tt.Results) == 0 {
		return ""
	}
	var sb strings.Builder
	if tt.Label != "" {
		sb.WriteString(t.theme.Muted.Render(tt.Label))
		sb.WriteString("\n")
	}

	maxName, maxState := 0, 0
	for _, r := range tt.Results {
		maxName = max(maxName, runewidth.StringWidth(r.Name))
		if len(r.Texts) > 0 {
			maxState = max(maxState, runewidth.StringWidth(r.Texts[0]))
		}
	}
	maxName = min(maxName, t.width/2)

	for _, r := range tt.Results {
		sb.WriteString("  ")
		icon, style := t.iconStyle(r.Status)
		sb.WriteString(style.Render(icon + " "))
		sb.WriteString(padRight(runewidth.Truncate(r.Name, maxName, "..."), maxName))

		if len(r.Texts) > 0 {
			sb.WriteString("  ")
			sb.WriteString(style.Render(padRight(r.Texts[0], maxState)))
			for _, extra := range r.Texts[1:] {
				sb.WriteString(t.theme.Warning.Render("  " + t.theme.Icons.Warn + " " + extra))
			}
		}
		if len(r.Logs) > 0 {
			sb.WriteString(t.theme.Muted.Render("  logs: " + strings.Join(r.Logs, ", ")))
		}
		if r.Details != "" {
			sb.WriteString("\n    ")
			sb.WriteString(t.theme.Muted.Render(r.Details))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Terminal) iconStyle(kind string) (string, lipgloss.Style) {
	switch kind {
	case pattern.KindSuccess:
		return t.theme.Icons.Pass, t.theme.Success
	case pattern.KindError:
		return t.theme.Icons.Fail, t.theme.Error
	case pattern.KindWarning:
		return t.theme.Icons.Warn, t.theme.Warning
	default:
		return t.theme.Icons.Skip, t.theme.Muted
	}
}

// padRight and padLeft pad by display width, so wide runes line up.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}
