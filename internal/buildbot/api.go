package buildbot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
)

// DefaultTimeout bounds one listing request against the data API.
const DefaultTimeout = 10 * time.Second

// APISource reads the listing from the Buildbot REST data API
// (<base>/api/v2/...).
type APISource struct {
	base   *url.URL
	client *http.Client
}

// NewAPISource returns a source for the Buildbot master at baseURL.
func NewAPISource(baseURL string, timeout time.Duration) (*APISource, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse buildbot url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("buildbot url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APISource{base: u, client: &http.Client{Timeout: timeout}}, nil
}

type apiBuilder struct {
	BuilderID int64  `json:"builderid"`
	Name      string `json:"name"`
}

type apiBuild struct {
	BuildID    int64                        `json:"buildid"`
	BuilderID  int64                        `json:"builderid"`
	Number     int64                        `json:"number"`
	Properties map[string][]json.RawMessage `json:"properties"`
}

// Listing returns all builders and the limit most recent builds.
func (s *APISource) Listing(ctx context.Context, limit int) (*aggregate.Listing, error) {
	var builders struct {
		Builders []apiBuilder `json:"builders"`
	}
	if err := s.get(ctx, "builders", nil, &builders); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("order", "-buildid")
	query.Set("property", VirtualBuilderProperty)
	var builds struct {
		Builds []apiBuild `json:"builds"`
	}
	if err := s.get(ctx, "builds", query, &builds); err != nil {
		return nil, err
	}

	listing := &aggregate.Listing{
		Jobs:   make([]aggregate.Job, 0, len(builders.Builders)),
		Builds: make([]aggregate.Build, 0, len(builds.Builds)),
	}
	for _, b := range builders.Builders {
		listing.Jobs = append(listing.Jobs, aggregate.Job{ID: b.BuilderID, Name: b.Name})
	}
	for _, b := range builds.Builds {
		build := aggregate.Build{ID: b.BuildID, JobID: b.BuilderID, Number: b.Number}
		// Properties are [value, source] pairs.
		if prop := b.Properties[VirtualBuilderProperty]; len(prop) > 0 {
			name, err := propertyString(prop[0])
			if err != nil {
				return nil, fmt.Errorf("build %d: %w", b.BuildID, err)
			}
			build.DisplayName = name
		}
		listing.Builds = append(listing.Builds, build)
	}
	return listing, nil
}

func (s *APISource) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	u := s.base.JoinPath("api", "v2", endpoint)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
