package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
	"github.com/tidewise/buildbot-ci/pkg/artifact"
	"github.com/tidewise/buildbot-ci/pkg/report"
)

// status is a simple endpoint to check if the server is alive.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	s.render(w, r, s.pages.index, d)
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) buildDashboard(w http.ResponseWriter, r *http.Request) (*aggregate.Dashboard, bool) {
	start := time.Now()
	d, err := s.dashboard.Dashboard(r.Context())
	s.metrics.renderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.renders.WithLabelValues("error").Inc()
		s.writeError(w, r, err)
		return nil, false
	}
	s.metrics.renders.WithLabelValues("ok").Inc()
	s.metrics.builds.Set(float64(len(d.Builds)))
	return d, true
}

// logPage is the data of the log view.
type logPage struct {
	ReportKey string
	Package   string
	LogType   string
	Contents  string
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	key, pkg, logType, ok := splitLogPath(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := s.artifacts.Log(key, pkg, logType)
	s.countArtifact(artifact.KindLog, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, s.pages.log, logPage{
		ReportKey: key,
		Package:   pkg,
		LogType:   logType,
		Contents:  string(data),
	})
}

func (s *Server) handleRawLog(w http.ResponseWriter, r *http.Request) {
	key, pkg, logType, ok := splitLogPath(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := s.artifacts.Log(key, pkg, logType)
	s.countArtifact(artifact.KindLog, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(data)
}

// testResultsPage is the data of the test-results view.
type testResultsPage struct {
	ReportKey string
	Package   string
	Contents  string
}

func (s *Server) handleTestResults(w http.ResponseWriter, r *http.Request) {
	key, pkg := r.PathValue("key"), strings.Trim(r.PathValue("path"), "/")
	if pkg == "" {
		http.NotFound(w, r)
		return
	}
	contents, err := s.artifacts.TestResults(key, pkg)
	s.countArtifact(artifact.KindTestResults, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, s.pages.testResults, testResultsPage{
		ReportKey: key,
		Package:   pkg,
		Contents:  contents,
	})
}

// splitLogPath splits /logs/{key}/{package...}/{logtype}.
func splitLogPath(r *http.Request) (key, pkg, logType string, ok bool) {
	rest := strings.Trim(r.PathValue("path"), "/")
	i := strings.LastIndex(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", "", false
	}
	return r.PathValue("key"), rest[:i], rest[i+1:], true
}

func (s *Server) countArtifact(kind artifact.Kind, err error) {
	outcome := outcomeFound
	switch {
	case err == nil:
	case errors.Is(err, artifact.ErrForbidden):
		outcome = outcomeForbidden
	case errors.Is(err, artifact.ErrNotFound):
		outcome = outcomeNotFound
	default:
		outcome = outcomeError
	}
	s.metrics.artifacts.WithLabelValues(kind.String(), outcome).Inc()
}

// writeError maps domain errors to status codes. Messages never echo
// resolved paths.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := loggerFrom(r.Context(), s.log)
	var malformed *report.MalformedError
	switch {
	case errors.Is(err, artifact.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, artifact.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.As(err, &malformed):
		log.WithError(err).WithField("path", malformed.Path).Error("malformed report")
		http.Error(w, "malformed report", http.StatusInternalServerError)
	default:
		log.WithError(err).Error("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
