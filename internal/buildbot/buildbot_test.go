package buildbot

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
)

func createStateDB(t *testing.T, withProperties bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE builders (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE builds (id INTEGER PRIMARY KEY, number INTEGER NOT NULL, builderid INTEGER NOT NULL)`,
		`INSERT INTO builders (id, name) VALUES (1, 'rock'), (2, 'docs')`,
		`INSERT INTO builds (id, number, builderid) VALUES (10, 1, 1), (11, 1, 2), (12, 2, 1), (13, 3, 1)`,
	}
	if withProperties {
		stmts = append(stmts,
			`CREATE TABLE build_properties (buildid INTEGER NOT NULL, name TEXT NOT NULL, value TEXT NOT NULL, source TEXT NOT NULL)`,
			`INSERT INTO build_properties VALUES (13, 'virtual_builder_name', '"rock/ubuntu"', 'Build')`,
			`INSERT INTO build_properties VALUES (12, 'owner', '"someone"', 'Build')`,
		)
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func TestSQLiteSource(t *testing.T) {
	t.Parallel()

	src, err := OpenSQLite(createStateDB(t, true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	listing, err := src.Listing(context.Background(), 3)
	require.NoError(t, err)

	wantJobs := []aggregate.Job{{ID: 1, Name: "rock"}, {ID: 2, Name: "docs"}}
	wantBuilds := []aggregate.Build{
		{ID: 13, JobID: 1, Number: 3, DisplayName: "rock/ubuntu"},
		{ID: 12, JobID: 1, Number: 2},
		{ID: 11, JobID: 2, Number: 1},
	}
	if diff := cmp.Diff(wantJobs, listing.Jobs); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantBuilds, listing.Builds); diff != "" {
		t.Errorf("builds mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSource_WithoutProperties(t *testing.T) {
	t.Parallel()

	src, err := OpenSQLite(createStateDB(t, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	listing, err := src.Listing(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listing.Builds, 4)
	for _, b := range listing.Builds {
		assert.Empty(t, b.DisplayName)
	}
}

func TestOpenSQLite_Errors(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite("")
	require.Error(t, err)

	_, err = OpenSQLite(filepath.Join(t.TempDir(), "missing.sqlite"))
	require.Error(t, err)
}

func TestAPISource(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bb/api/v2/builders":
			_, _ = w.Write([]byte(`{"builders":[{"builderid":1,"name":"rock"}],"meta":{"total":1}}`))
		case "/bb/api/v2/builds":
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"builds":[
				{"buildid":13,"builderid":1,"number":3,"properties":{"virtual_builder_name":["rock/ubuntu","Build"]}},
				{"buildid":12,"builderid":1,"number":2,"properties":{}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	src, err := NewAPISource(srv.URL+"/bb/", time.Second)
	require.NoError(t, err)

	listing, err := src.Listing(context.Background(), 2)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "limit=2")
	assert.Contains(t, gotQuery, "order=-buildid")
	assert.Contains(t, gotQuery, "property=virtual_builder_name")

	want := &aggregate.Listing{
		Jobs: []aggregate.Job{{ID: 1, Name: "rock"}},
		Builds: []aggregate.Build{
			{ID: 13, JobID: 1, Number: 3, DisplayName: "rock/ubuntu"},
			{ID: 12, JobID: 1, Number: 2},
		},
	}
	if diff := cmp.Diff(want, listing); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestAPISource_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	src, err := NewAPISource(srv.URL, 0)
	require.NoError(t, err)

	_, err = src.Listing(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestNewAPISource_RejectsScheme(t *testing.T) {
	t.Parallel()

	_, err := NewAPISource("ftp://example.com", time.Second)
	require.Error(t, err)
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "listing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jobs:
  - {id: 1, name: rock}
builds:
  - {id: 12, job_id: 1, number: 2}
  - {id: 14, job_id: 1, number: 4, display_name: rock/ubuntu}
  - {id: 13, job_id: 1, number: 3}
`), 0o644))

	listing, err := NewFileSource(path).Listing(context.Background(), 2)
	require.NoError(t, err)

	want := []aggregate.Build{
		{ID: 14, JobID: 1, Number: 4, DisplayName: "rock/ubuntu"},
		{ID: 13, JobID: 1, Number: 3},
	}
	if diff := cmp.Diff(want, listing.Builds); diff != "" {
		t.Errorf("builds mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSource_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).Listing(context.Background(), 1)
	require.Error(t, err)
}
