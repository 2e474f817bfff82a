package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// Aggregator builds dashboards from a listing source and the reports on
// disk. It holds no state between calls.
type Aggregator struct {
	source      Source
	loader      *report.Loader
	limit       int
	concurrency int
	log         logrus.FieldLogger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLimit caps the number of builds considered per dashboard.
func WithLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithConcurrency sets how many reports are loaded in parallel.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger used for skipped builds.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// New returns an aggregator reading listings from source and reports through
// loader.
func New(source Source, loader *report.Loader, opts ...Option) *Aggregator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	a := &Aggregator{
		source:      source,
		loader:      loader,
		limit:       DefaultLimit,
		concurrency: 1,
		log:         discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Limit returns the configured build limit.
func (a *Aggregator) Limit() int {
	return a.limit
}

// Dashboard fetches the latest listing and aggregates it.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	listing, err := a.source.Listing(ctx, a.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch build listing: %w", err)
	}
	return a.FromListing(ctx, listing)
}

// FromListing joins listing with the reports on disk. Builds without a
// report, or whose job is not listed, are left out. A malformed report fails
// the whole dashboard.
func (a *Aggregator) FromListing(ctx context.Context, listing *Listing) (*Dashboard, error) {
	jobNames := make(map[int64]string, len(listing.Jobs))
	for _, j := range listing.Jobs {
		jobNames[j.ID] = j.Name
	}

	builds := listing.Builds
	if len(builds) > a.limit {
		builds = builds[:a.limit]
	}

	infos := make([]*BuildInfo, len(builds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, b := range builds {
		jobName, ok := jobNames[b.JobID]
		if !ok {
			a.log.WithFields(logrus.Fields{"build_id": b.ID, "job_id": b.JobID}).Debug("skipping build of unlisted job")
			continue
		}
		if b.DisplayName != "" {
			jobName = b.DisplayName
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := a.buildInfo(b, jobName)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{Builds: make([]*BuildInfo, 0, len(infos))}
	for _, info := range infos {
		if info != nil {
			d.Builds = append(d.Builds, info)
		}
	}
	d.Jobs = GroupByJob(d.Builds)
	return d, nil
}

// buildInfo loads the report of one build. It returns nil without error
// when the build has no report yet.
func (a *Aggregator) buildInfo(b Build, jobName string) (*BuildInfo, error) {
	key := ReportKey(jobName, b.Number)
	rep, err := a.loader.Load(key)
	if errors.Is(err, report.ErrNoReport) {
		a.log.WithField("report_key", key).Debug("build has no report")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", BuildName(jobName, b.Number), err)
	}
	return &BuildInfo{
		ID:          b.ID,
		Name:        BuildName(jobName, b.Number),
		ReportKey:   key,
		JobID:       b.JobID,
		BuildNumber: b.Number,
		JobName:     jobName,
		Summary:     Summarize(rep),
		Report:      rep,
		State:       State(rep),
	}, nil
}

// Summarize counts the first status of every package. Each text keeps the
// badge of its first occurrence.
func Summarize(rep *report.Report) Summary {
	summary := Summary{}
	index := make(map[string]int)
	for i := range rep.Packages {
		st := rep.Packages[i].State()
		if j, ok := index[st.Text]; ok {
			summary[j].Count++
			continue
		}
		index[st.Text] = len(summary)
		summary = append(summary, SummaryItem{Badge: st.Badge, Text: st.Text, Count: 1})
	}
	return summary
}

// State returns the overall state of a build: the state of its worst
// package, or success for a report without packages. rep must be sorted.
func State(rep *report.Report) status.Entry {
	if len(rep.Packages) == 0 {
		return status.Success()
	}
	return rep.Packages[0].State()
}

// GroupByJob groups builds by job name, keeping the first-seen order of jobs
// and the input order of builds within a job.
func GroupByJob(builds []*BuildInfo) []JobGroup {
	var groups []JobGroup
	index := make(map[string]int)
	for _, b := range builds {
		i, ok := index[b.JobName]
		if !ok {
			i = len(groups)
			index[b.JobName] = i
			groups = append(groups, JobGroup{Name: b.JobName})
		}
		groups[i].Builds = append(groups[i].Builds, b)
	}
	return groups
}
