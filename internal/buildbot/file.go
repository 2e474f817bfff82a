package buildbot

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
)

// FileSource reads a static listing from a YAML (or JSON) file. It is used
// for offline inspection of a report archive and in tests.
//
//	jobs:
//	  - {id: 1, name: rock}
//	builds:
//	  - {id: 12, job_id: 1, number: 7, display_name: rock/ubuntu}
type FileSource struct {
	path string
}

// NewFileSource returns a source reading path on every listing.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type fileListing struct {
	Jobs []struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"jobs"`
	Builds []struct {
		ID          int64  `yaml:"id"`
		JobID       int64  `yaml:"job_id"`
		Number      int64  `yaml:"number"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"builds"`
}

// Listing returns the file's jobs and its limit most recent builds, newest
// first.
func (s *FileSource) Listing(ctx context.Context, limit int) (*aggregate.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	var raw fileListing
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", s.path, err)
	}

	listing := &aggregate.Listing{}
	for _, j := range raw.Jobs {
		listing.Jobs = append(listing.Jobs, aggregate.Job{ID: j.ID, Name: j.Name})
	}
	for _, b := range raw.Builds {
		listing.Builds = append(listing.Builds, aggregate.Build{
			ID:          b.ID,
			JobID:       b.JobID,
			Number:      b.Number,
			DisplayName: b.DisplayName,
		})
	}
	sort.SliceStable(listing.Builds, func(i, j int) bool {
		return listing.Builds[i].ID > listing.Builds[j].ID
	})
	if limit >= 0 && len(listing.Builds) > limit {
		listing.Builds = listing.Builds[:limit]
	}
	return listing, nil
}
