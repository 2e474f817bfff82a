// Package aggregate joins the CI platform's build listing with the reports
// found on disk into the dashboard view: one BuildInfo per reported build,
// grouped by job.
package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// DefaultLimit is the number of most recent builds considered per render.
const DefaultLimit = 20

// Job is a job definition of the CI platform.
type Job struct {
	ID   int64  `json:"job_id"`
	Name string `json:"job_name"`
}

// Build is one run of a job.
type Build struct {
	ID     int64 `json:"build_id"`
	JobID  int64 `json:"job_id"`
	Number int64 `json:"build_number"`
	// DisplayName overrides the job name when the platform runs several
	// logical jobs on one job definition.
	DisplayName string `json:"display_name,omitempty"`
}

// Listing is the platform's job and build listing, builds newest first.
type Listing struct {
	Jobs   []Job
	Builds []Build
}

// Source fetches the most recent builds from the CI platform.
type Source interface {
	Listing(ctx context.Context, limit int) (*Listing, error)
}

// SummaryItem counts the packages of a build sharing one state.
type SummaryItem struct {
	Badge status.Badge `json:"badge"`
	Text  string       `json:"text"`
	Count int          `json:"count"`
}

// Summary counts package states in order of first appearance, which for a
// sorted report is severity order.
type Summary []SummaryItem

// BuildInfo is the dashboard view of one build with a report.
type BuildInfo struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	ReportKey   string         `json:"report_key"`
	JobID       int64          `json:"job_id"`
	BuildNumber int64          `json:"build_number"`
	JobName     string         `json:"job_name"`
	Summary     Summary        `json:"summary"`
	Report      *report.Report `json:"report"`
	State       status.Entry   `json:"state"`
}

// JobGroup lists the builds of one job, newest first.
type JobGroup struct {
	Name   string       `json:"name"`
	Builds []*BuildInfo `json:"builds"`
}

// Dashboard is what the rendering layers display.
type Dashboard struct {
	Builds []*BuildInfo `json:"builds"`
	Jobs   []JobGroup   `json:"jobs"`
}

// Job returns the group of a job by display name.
func (d *Dashboard) Job(name string) (*JobGroup, bool) {
	for i := range d.Jobs {
		if d.Jobs[i].Name == name {
			return &d.Jobs[i], true
		}
	}
	return nil, false
}

// Build returns the build stored under a report key.
func (d *Dashboard) Build(reportKey string) (*BuildInfo, bool) {
	for _, b := range d.Builds {
		if b.ReportKey == reportKey {
			return b, true
		}
	}
	return nil, false
}

// BuildName returns the human-readable name of a build.
func BuildName(jobName string, number int64) string {
	return fmt.Sprintf("%s-%d", jobName, number)
}

// ReportKey returns the directory name under which a build's report is
// stored. Slashes in job names are replaced to keep it a single path element.
func ReportKey(jobName string, number int64) string {
	return strings.ReplaceAll(BuildName(jobName, number), "/", ":")
}
