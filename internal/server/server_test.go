package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
	"github.com/tidewise/buildbot-ci/pkg/artifact"
	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

type fakeDashboard struct {
	d   *aggregate.Dashboard
	err error
}

func (f *fakeDashboard) Dashboard(context.Context) (*aggregate.Dashboard, error) {
	return f.d, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sampleDashboard() *aggregate.Dashboard {
	rep := &report.Report{Packages: []report.Package{
		{
			Name:   "drivers/camera",
			Status: []status.Entry{{Badge: status.BadgeFailure, Text: "build failed"}, status.NoTests()},
			Logs:   map[string]string{"build": "x"},
			Tests:  []artifact.Test{{Path: "y", Kind: artifact.TestKindXUnit}},
		},
	}}
	b := &aggregate.BuildInfo{
		ID: 12, Name: "rock/ubuntu-3", ReportKey: "rock:ubuntu-3", JobName: "rock/ubuntu", BuildNumber: 3,
		Report: rep, Summary: aggregate.Summarize(rep), State: aggregate.State(rep),
	}
	builds := []*aggregate.BuildInfo{b}
	return &aggregate.Dashboard{Builds: builds, Jobs: aggregate.GroupByJob(builds)}
}

type fixture struct {
	server  *Server
	handler http.Handler
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, builder DashboardBuilder) fixture {
	t.Helper()
	root := t.TempDir()
	reportDir := filepath.Join(root, "rock:ubuntu-3")
	writeFile(t, filepath.Join(reportDir, "logs", "drivers", "camera-build.log"), "error: <missing header>\n")
	writeFile(t, filepath.Join(reportDir, "logs", "test-results", "drivers", "camera.html"), "<table><tr><td>ok</td></tr></table>")
	writeFile(t, filepath.Join(root, "ci:nightly-4", "logs", "a-build.log"), "ok\n")
	writeFile(t, filepath.Join(root, "ci:nightly-4", "logs", "test-results", "a.html"), "<p>ok</p>")
	writeFile(t, filepath.Join(root, "secret.txt"), "top secret")

	resolver, err := artifact.NewResolver(root, nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	srv, err := New(Options{Dashboard: builder, Artifacts: resolver, Registry: reg})
	require.NoError(t, err)
	return fixture{server: srv, handler: srv.Handler(), reg: reg}
}

func (f fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (f fixture) metric(t *testing.T, line string) {
	t.Helper()
	rec := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), line+"\n")
}

func TestIndex(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	for _, target := range []string{"/", "/index.html"} {
		rec := f.get(t, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		body := rec.Body.String()
		assert.Contains(t, body, "rock/ubuntu-3")
		assert.Contains(t, body, "badge-failure")
		assert.Contains(t, body, ">Failure<")
		assert.Contains(t, body, `href="/logs/rock:ubuntu-3/drivers/camera/build"`)
		assert.Contains(t, body, `href="/test-results/rock:ubuntu-3/drivers/camera"`)
	}
	f.metric(t, `buildbot_ci_dashboard_renders_total{result="ok"} 2`)
	f.metric(t, `buildbot_ci_dashboard_builds 1`)
}

func TestDashboardJSON(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	rec := f.get(t, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Builds []struct {
			ReportKey string       `json:"report_key"`
			State     status.Entry `json:"state"`
		} `json:"builds"`
		Jobs []struct {
			Name string `json:"name"`
		} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Builds, 1)
	assert.Equal(t, "rock:ubuntu-3", got.Builds[0].ReportKey)
	assert.Equal(t, status.BadgeFailure, got.Builds[0].State.Badge)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "rock/ubuntu", got.Jobs[0].Name)
}

func TestLogPages(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	rec := f.get(t, "/logs/rock:ubuntu-3/drivers/camera/build")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "error: &lt;missing header&gt;")
	assert.Contains(t, rec.Body.String(), "rock:ubuntu-3")

	rec = f.get(t, "/raw/logs/rock:ubuntu-3/drivers/camera/build")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error: <missing header>\n", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	rec = f.get(t, "/test-results/rock:ubuntu-3/drivers/camera")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<table><tr><td>ok</td></tr></table>")

	f.metric(t, `buildbot_ci_artifact_requests_total{kind="log",outcome="found"} 2`)
	f.metric(t, `buildbot_ci_artifact_requests_total{kind="test-results",outcome="found"} 1`)
}

func TestArtifactErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{name: "missing log type", target: "/logs/rock:ubuntu-3/drivers/camera/test", code: http.StatusNotFound},
		{name: "missing report", target: "/raw/logs/rock-9/drivers/camera/build", code: http.StatusNotFound},
		{name: "missing test results", target: "/test-results/rock:ubuntu-3/base/types", code: http.StatusNotFound},
		{name: "no log type", target: "/logs/rock:ubuntu-3/camera", code: http.StatusNotFound},
		{name: "encoded traversal", target: "/raw/logs/rock:ubuntu-3/..%2F..%2F..%2Fsecret/txt", code: http.StatusForbidden},
		{name: "encoded traversal in key", target: "/raw/logs/..%2Frock:ubuntu-3/drivers/camera/build", code: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.get(t, tt.target)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotContains(t, rec.Body.String(), "top secret")
		})
	}
}

func TestDashboardErrors(t *testing.T) {
	t.Parallel()

	malformed := &report.MalformedError{Path: "rock-1/report.json", Err: errors.New("unexpected EOF")}
	f := newFixture(t, &fakeDashboard{err: malformed})
	rec := f.get(t, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed report")
	f.metric(t, `buildbot_ci_dashboard_renders_total{result="error"} 1`)

	f = newFixture(t, &fakeDashboard{err: errors.New("database is locked")})
	rec = f.get(t, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestStatusAndMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	rec := f.get(t, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"live"}`, rec.Body.String())
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	require.NoError(t, err)

	f.metric(t, `buildbot_ci_http_requests_total{code="200"} 1`)
}

func TestRequestIDPassthrough(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(RequestIDHeader, "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestServeListener_Shutdown(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.server.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/status")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "live")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()
	_, err := New(Options{})
	require.Error(t, err)
}

func TestLogPages_ShowReportKeyVerbatim(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &fakeDashboard{d: sampleDashboard()})

	for _, target := range []string{"/logs/ci:nightly-4/a/build", "/test-results/ci:nightly-4/a"} {
		rec := f.get(t, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), ">ci:nightly-4</a>", target)
		assert.NotContains(t, rec.Body.String(), "ci/nightly", target)
	}
}
