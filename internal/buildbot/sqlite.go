package buildbot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
)

// SQLiteSource reads the listing from a Buildbot state database
// (state.sqlite). The database is opened read-only.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens the Buildbot state database at path.
func OpenSQLite(path string) (*SQLiteSource, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing buildbot database path")
	}

	// modernc.org/sqlite accepts URI filenames for open flags.
	db, err := sql.Open("sqlite", "file:"+p+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open buildbot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open buildbot database %s: %w", p, err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Listing returns all builders and the limit most recent builds.
func (s *SQLiteSource) Listing(ctx context.Context, limit int) (*aggregate.Listing, error) {
	jobs, err := s.builders(ctx)
	if err != nil {
		return nil, err
	}
	builds, err := s.builds(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := s.applyVirtualNames(ctx, builds); err != nil {
		return nil, err
	}
	return &aggregate.Listing{Jobs: jobs, Builds: builds}, nil
}

func (s *SQLiteSource) builders(ctx context.Context) ([]aggregate.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM builders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list builders: %w", err)
	}
	defer rows.Close()

	var jobs []aggregate.Job
	for rows.Next() {
		var j aggregate.Job
		if err := rows.Scan(&j.ID, &j.Name); err != nil {
			return nil, fmt.Errorf("scan builder: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLiteSource) builds(ctx context.Context, limit int) ([]aggregate.Build, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, builderid, number
FROM builds
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var builds []aggregate.Build
	for rows.Next() {
		var b aggregate.Build
		if err := rows.Scan(&b.ID, &b.JobID, &b.Number); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// applyVirtualNames fills DisplayName from the virtual builder property.
// Databases without a build_properties table are accepted.
func (s *SQLiteSource) applyVirtualNames(ctx context.Context, builds []aggregate.Build) error {
	if len(builds) == 0 {
		return nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'build_properties'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if n == 0 {
		return nil
	}

	index := make(map[int64]int, len(builds))
	minID := builds[0].ID
	for i, b := range builds {
		index[b.ID] = i
		if b.ID < minID {
			minID = b.ID
		}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT buildid, value
FROM build_properties
WHERE name = ? AND buildid >= ?
`, VirtualBuilderProperty, minID)
	if err != nil {
		return fmt.Errorf("list build properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return fmt.Errorf("scan build property: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		name, err := propertyString([]byte(value))
		if err != nil {
			return fmt.Errorf("build %d: %w", id, err)
		}
		builds[i].DisplayName = name
	}
	return rows.Err()
}
