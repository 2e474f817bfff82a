package mapper

import (
	"fmt"
	"sort"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
	"github.com/tidewise/buildbot-ci/pkg/pattern"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// Options tunes FromDashboard.
type Options struct {
	// TopFailing bounds the failing builds leaderboard. Zero disables it.
	TopFailing int
	// Packages includes one package table per build.
	Packages bool
}

// DefaultOptions is what the status command renders.
func DefaultOptions() Options {
	return Options{TopFailing: 5, Packages: true}
}

// FromDashboard converts a dashboard into patterns: a top summary with the
// latest state of every job, then per build a summary and its package
// table, grouped by job.
func FromDashboard(d *aggregate.Dashboard, opts Options) []pattern.Pattern {
	patterns := []pattern.Pattern{dashboardSummary(d)}

	if opts.TopFailing > 0 {
		if lb := failingLeaderboard(d.Builds, opts.TopFailing); lb != nil {
			patterns = append(patterns, lb)
		}
	}

	for _, job := range d.Jobs {
		for _, b := range job.Builds {
			patterns = append(patterns, BuildSummary(b))
			if opts.Packages && len(b.Report.Packages) > 0 {
				patterns = append(patterns, FromReport(b.Name+" packages", b.Report))
			}
		}
	}
	return patterns
}

func dashboardSummary(d *aggregate.Dashboard) *pattern.Summary {
	metrics := make([]pattern.SummaryItem, 0, len(d.Jobs))
	failing := 0
	for _, job := range d.Jobs {
		latest := job.Builds[0]
		if latest.State.Badge == status.BadgeFailure {
			failing++
		}
		metrics = append(metrics, pattern.SummaryItem{
			Label: job.Name,
			Value: latest.State.Text,
			Kind:  KindOf(latest.State.Badge),
		})
	}

	label := fmt.Sprintf("DASHBOARD: %s, %s", plural(len(d.Builds), "build"), plural(len(d.Jobs), "job"))
	if failing == 0 {
		label += " — all green"
	} else {
		label += fmt.Sprintf(" — %d failing", failing)
	}
	return &pattern.Summary{Label: label, Kind: pattern.SummaryKindDashboard, Metrics: metrics}
}

// BuildSummary describes one build: its state and its package counts.
func BuildSummary(b *aggregate.BuildInfo) *pattern.Summary {
	metrics := make([]pattern.SummaryItem, 0, len(b.Summary))
	for _, item := range b.Summary {
		metrics = append(metrics, pattern.SummaryItem{
			Label: item.Text,
			Value: fmt.Sprintf("%d", item.Count),
			Kind:  KindOf(item.Badge),
		})
	}
	return &pattern.Summary{
		Label:   fmt.Sprintf("%s: %s", b.Name, b.State.Text),
		Kind:    pattern.SummaryKindBuild,
		Metrics: metrics,
	}
}

func failingLeaderboard(builds []*aggregate.BuildInfo, top int) *pattern.Leaderboard {
	var items []pattern.LeaderboardItem
	for _, b := range builds {
		n := failedPackages(b.Report)
		if n == 0 {
			continue
		}
		items = append(items, pattern.LeaderboardItem{
			Name:    b.Name,
			Metric:  fmt.Sprintf("%d failed", n),
			Value:   float64(n),
			Context: b.JobName,
		})
	}
	if len(items) == 0 {
		return nil
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Value > items[j].Value })

	total := len(items)
	if len(items) > top {
		items = items[:top]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return &pattern.Leaderboard{
		Label:      "Failing builds",
		MetricName: "failed packages",
		Items:      items,
		TotalCount: total,
		ShowRank:   true,
	}
}
