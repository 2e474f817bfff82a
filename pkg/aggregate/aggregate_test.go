package aggregate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

type fakeSource struct {
	listing   *Listing
	err       error
	lastLimit int
}

func (f *fakeSource) Listing(_ context.Context, limit int) (*Listing, error) {
	f.lastLimit = limit
	return f.listing, f.err
}

func writeReport(t *testing.T, root, key, body string) {
	t.Helper()
	dir := filepath.Join(root, key)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, report.FileName), []byte(body), 0o644))
}

const failingReport = `{"packages": {
  "drivers/a": {"build": {"invoked": true, "cached": false, "success": false}},
  "drivers/b": {"build": {"invoked": true, "cached": false, "success": false}},
  "tools/ok": {"test": {"invoked": true, "cached": true, "success": true}}
}}`

func TestReportKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rock:master-12", ReportKey("rock/master", 12))
	assert.Equal(t, "plain-3", ReportKey("plain", 3))
	assert.Equal(t, "rock/master-12", BuildName("rock/master", 12))

	assert.NotEqual(t, ReportKey("rock/master", 1), ReportKey("rock/master", 11))
	assert.NotEqual(t, ReportKey("rock/master", 1), ReportKey("rock/maste", 1))
	assert.Equal(t, ReportKey("rock/master", 7), ReportKey("rock:master", 7),
		"names equal after substitution share a key")
}

func TestAggregator_FromListing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeReport(t, root, "rock:master-12", failingReport)
	writeReport(t, root, "rock:master-11", `{"packages": {}}`)
	writeReport(t, root, "docs-4", `{"packages": {"doc": {"build": {"invoked": true, "cached": false, "success": true}, "test": {"invoked": false, "cached": false, "success": false}}}}`)

	listing := &Listing{
		Jobs: []Job{{ID: 1, Name: "rock/master"}, {ID: 2, Name: "docs"}},
		Builds: []Build{
			{ID: 104, JobID: 1, Number: 13}, // still running, no report
			{ID: 103, JobID: 1, Number: 12},
			{ID: 102, JobID: 2, Number: 4},
			{ID: 101, JobID: 1, Number: 11},
			{ID: 100, JobID: 9, Number: 1}, // unlisted job
		},
	}
	agg := New(nil, report.NewLoader(root, status.DefaultTable()), WithConcurrency(3))
	d, err := agg.FromListing(context.Background(), listing)
	require.NoError(t, err)

	require.Len(t, d.Builds, 3)
	assert.Equal(t, []int64{103, 102, 101}, []int64{d.Builds[0].ID, d.Builds[1].ID, d.Builds[2].ID})

	b := d.Builds[0]
	assert.Equal(t, "rock/master-12", b.Name)
	assert.Equal(t, "rock:master-12", b.ReportKey)
	assert.Equal(t, "rock/master", b.JobName)
	assert.Equal(t, int64(12), b.BuildNumber)
	assert.Equal(t, status.Entry{Badge: status.BadgeFailure, Text: "build failed"}, b.State)
	if diff := cmp.Diff(Summary{
		{Badge: status.BadgeFailure, Text: "build failed", Count: 2},
		{Badge: status.BadgeSuccess, Text: "cached: test", Count: 1},
	}, b.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	empty := d.Builds[2]
	assert.Equal(t, status.Success(), empty.State)
	assert.Empty(t, empty.Summary)

	require.Len(t, d.Jobs, 2)
	assert.Equal(t, "rock/master", d.Jobs[0].Name)
	assert.Equal(t, []*BuildInfo{d.Builds[0], d.Builds[2]}, d.Jobs[0].Builds)
	assert.Equal(t, "docs", d.Jobs[1].Name)

	got, ok := d.Build("docs-4")
	require.True(t, ok)
	assert.Equal(t, status.Entry{Badge: status.BadgeSuccess, Text: "build"}, got.State)
	_, ok = d.Job("missing")
	assert.False(t, ok)
}

func TestAggregator_DisplayNameOverridesJobName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeReport(t, root, "rock:ubuntu-5", `{"packages": {}}`)

	agg := New(nil, report.NewLoader(root, status.DefaultTable()))
	d, err := agg.FromListing(context.Background(), &Listing{
		Jobs:   []Job{{ID: 1, Name: "rock"}},
		Builds: []Build{{ID: 1, JobID: 1, Number: 5, DisplayName: "rock/ubuntu"}},
	})
	require.NoError(t, err)
	require.Len(t, d.Builds, 1)
	assert.Equal(t, "rock/ubuntu", d.Builds[0].JobName)
	assert.Equal(t, "rock/ubuntu", d.Jobs[0].Name)
}

func TestAggregator_MalformedReportFails(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeReport(t, root, "job-1", `{"packages": `)

	agg := New(nil, report.NewLoader(root, status.DefaultTable()))
	_, err := agg.FromListing(context.Background(), &Listing{
		Jobs:   []Job{{ID: 1, Name: "job"}},
		Builds: []Build{{ID: 1, JobID: 1, Number: 1}},
	})
	var malformed *report.MalformedError
	require.ErrorAs(t, err, &malformed)
}

func TestAggregator_Dashboard_UsesSourceWithLimit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, key := range []string{"job-3", "job-2", "job-1"} {
		writeReport(t, root, key, `{"packages": {}}`)
	}
	src := &fakeSource{listing: &Listing{
		Jobs:   []Job{{ID: 1, Name: "job"}},
		Builds: []Build{{ID: 3, JobID: 1, Number: 3}, {ID: 2, JobID: 1, Number: 2}, {ID: 1, JobID: 1, Number: 1}},
	}}

	agg := New(src, report.NewLoader(root, status.DefaultTable()), WithLimit(2))
	d, err := agg.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.lastLimit)
	assert.Len(t, d.Builds, 2, "listing is truncated to the limit")
	assert.Equal(t, 2, agg.Limit())
}

func TestAggregator_Dashboard_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	agg := New(&fakeSource{err: boom}, report.NewLoader(t.TempDir(), status.DefaultTable()))
	_, err := agg.Dashboard(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	agg := New(nil, nil, WithLimit(0), WithConcurrency(-1), WithLogger(nil))
	assert.Equal(t, DefaultLimit, agg.Limit())
	assert.Equal(t, 1, agg.concurrency)
}
