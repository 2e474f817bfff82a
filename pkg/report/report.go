// Package report loads the per-build report.json written by the CI report
// generator and turns it into a severity-ordered list of classified packages.
package report

import (
	"fmt"
	"sort"

	"github.com/tidewise/buildbot-ci/pkg/artifact"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// Package is one classified entry of a report. Status is never empty; its
// first entry determines the package's severity.
type Package struct {
	Name   string            `json:"name"`
	Phases status.Phases     `json:"phases"`
	Status []status.Entry    `json:"status"`
	Logs   map[string]string `json:"logs"`
	Tests  []artifact.Test   `json:"tests"`
}

// State returns the entry that ranks the package.
func (p *Package) State() status.Entry {
	return p.Status[0]
}

// Report is the classified content of one build's report, worst packages
// first and ties broken by package name.
type Report struct {
	Packages []Package `json:"packages"`
}

// Build classifies raw phases, attaches artifacts found by locator and sorts
// the result. A nil locator skips artifact lookup.
func Build(raw map[string]status.Phases, table *status.Table, locator *artifact.Locator) (*Report, error) {
	packages := make([]Package, 0, len(raw))
	for name, phases := range raw {
		pkg := Package{
			Name:   name,
			Phases: phases,
			Status: status.Classify(phases),
			Logs:   map[string]string{},
		}
		if locator != nil {
			logs, err := locator.Logs(name)
			if err != nil {
				return nil, err
			}
			pkg.Logs = logs
			pkg.Tests = locator.Tests(name)
		}
		packages = append(packages, pkg)
	}
	if err := Sort(packages, table); err != nil {
		return nil, err
	}
	return &Report{Packages: packages}, nil
}

// Sort orders packages by the rank of their first status, then by name. It
// fails without reordering when a status text is missing from table.
func Sort(packages []Package, table *status.Table) error {
	ranks := make(map[string]int, len(packages))
	for _, p := range packages {
		if len(p.Status) == 0 {
			return fmt.Errorf("package %s has no status", p.Name)
		}
		rank, err := table.Rank(p.State().Text)
		if err != nil {
			return fmt.Errorf("package %s: %w", p.Name, err)
		}
		ranks[p.Name] = rank
	}
	sort.SliceStable(packages, func(i, j int) bool {
		ri, rj := ranks[packages[i].Name], ranks[packages[j].Name]
		if ri != rj {
			return ri < rj
		}
		return packages[i].Name < packages[j].Name
	})
	return nil
}
