// Package mapper converts dashboards and reports into visualization patterns.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidewise/buildbot-ci/pkg/pattern"
	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// KindOf maps a badge to a pattern item kind.
func KindOf(b status.Badge) string {
	switch b {
	case status.BadgeSuccess:
		return pattern.KindSuccess
	case status.BadgeFailure:
		return pattern.KindError
	case status.BadgeWarnings:
		return pattern.KindWarning
	default:
		return pattern.KindInfo
	}
}

// FromReport converts one report into a package table labeled label.
func FromReport(label string, rep *report.Report) *pattern.TestTable {
	items := make([]pattern.TestTableItem, 0, len(rep.Packages))
	for i := range rep.Packages {
		items = append(items, packageItem(&rep.Packages[i]))
	}
	return &pattern.TestTable{Label: label, Results: items}
}

func packageItem(p *report.Package) pattern.TestTableItem {
	texts := make([]string, 0, len(p.Status))
	for _, e := range p.Status {
		texts = append(texts, e.Text)
	}
	logs := make([]string, 0, len(p.Logs))
	for logType := range p.Logs {
		logs = append(logs, logType)
	}
	sort.Strings(logs)

	item := pattern.TestTableItem{
		Name:   p.Name,
		Status: KindOf(p.State().Badge),
		Texts:  texts,
		Logs:   logs,
	}
	if len(p.Tests) > 0 {
		kinds := make([]string, 0, len(p.Tests))
		for _, t := range p.Tests {
			kinds = append(kinds, t.Kind)
		}
		item.Details = "test results: " + strings.Join(kinds, ", ")
	}
	return item
}

// failedPackages counts the packages whose state is a failure.
func failedPackages(rep *report.Report) int {
	n := 0
	for i := range rep.Packages {
		if rep.Packages[i].State().Badge == status.BadgeFailure {
			n++
		}
	}
	return n
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
