package render

import (
	"fmt"
	"strings"

	"github.com/tidewise/buildbot-ci/pkg/pattern"
)

// LLM renders patterns as terse plain text optimized for AI consumption.
// Zero ANSI codes, a SCOPE line, failures spelled out, passing packages
// folded into a count.
type LLM struct{}

// NewLLM creates an LLM renderer.
func NewLLM() *LLM {
	return &LLM{}
}

// Render formats all patterns for LLM consumption.
func (l *LLM) Render(patterns []pattern.Pattern) string {
	var sb strings.Builder

	for _, p := range patterns {
		switch v := p.(type) {
		case *pattern.Summary:
			l.renderSummary(&sb, v)
		case *pattern.TestTable:
			l.renderTable(&sb, v)
		case *pattern.Leaderboard:
			l.renderLeaderboard(&sb, v)
		}
	}
	return sb.String()
}

func (l *LLM) renderSummary(sb *strings.Builder, s *pattern.Summary) {
	switch s.Kind {
	case pattern.SummaryKindDashboard:
		sb.WriteString("SCOPE: " + s.Label + "\n")
		for _, m := range s.Metrics {
			sb.WriteString(fmt.Sprintf("  %s %s: %s\n", llmLevel(m.Kind), m.Label, m.Value))
		}
	default:
		parts := make([]string, 0, len(s.Metrics))
		for _, m := range s.Metrics {
			parts = append(parts, m.Label+" "+m.Value)
		}
		sb.WriteString("\n" + s.Label)
		if len(parts) > 0 {
			sb.WriteString(" (" + strings.Join(parts, ", ") + ")")
		}
		sb.WriteString("\n")
	}
}

func (l *LLM) renderTable(sb *strings.Builder, t *pattern.TestTable) {
	passed := 0
	for _, item := range t.Results {
		if item.Status == pattern.KindSuccess {
			passed++
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s [%s]", llmLevel(item.Status), item.Name, strings.Join(item.Texts, ", ")))
		if len(item.Logs) > 0 {
			sb.WriteString(" logs: " + strings.Join(item.Logs, ","))
		}
		sb.WriteString("\n")
	}
	if passed > 0 {
		sb.WriteString(fmt.Sprintf("  PASS %d packages\n", passed))
	}
}

func (l *LLM) renderLeaderboard(sb *strings.Builder, lb *pattern.Leaderboard) {
	names := make([]string, 0, len(lb.Items))
	for _, item := range lb.Items {
		names = append(names, fmt.Sprintf("%s (%s)", item.Name, item.Metric))
	}
	sb.WriteString("WORST: " + strings.Join(names, ", ") + "\n")
}

func llmLevel(kind string) string {
	switch kind {
	case pattern.KindError:
		return "FAIL"
	case pattern.KindWarning:
		return "WARN"
	case pattern.KindSuccess:
		return "PASS"
	default:
		return "SKIP"
	}
}
