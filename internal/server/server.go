// Package server is the web boundary of the dashboard: HTML and JSON views
// of the aggregated builds, log and test-result pages served through the
// artifact resolver, liveness and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tidewise/buildbot-ci/internal/logging"
	"github.com/tidewise/buildbot-ci/pkg/aggregate"
)

// shutdownTimeout bounds in-flight requests once the serve context ends.
const shutdownTimeout = 5 * time.Second

// DashboardBuilder aggregates the current dashboard. *aggregate.Aggregator
// implements it.
type DashboardBuilder interface {
	Dashboard(ctx context.Context) (*aggregate.Dashboard, error)
}

// Artifacts reads build artifacts by report key. *artifact.Resolver
// implements it.
type Artifacts interface {
	Log(reportKey, pkgName, logType string) ([]byte, error)
	TestResults(reportKey, pkgName string) (string, error)
}

// Options configures a Server.
type Options struct {
	Dashboard DashboardBuilder
	Artifacts Artifacts
	Logger    logrus.FieldLogger
	// Registry receives the server metrics and is exposed on /metrics. A
	// fresh registry is used when nil.
	Registry *prometheus.Registry
}

// Server serves the dashboard over HTTP.
type Server struct {
	dashboard DashboardBuilder
	artifacts Artifacts
	log       logrus.FieldLogger
	registry  *prometheus.Registry
	metrics   *metrics
	pages     *pages
}

// New returns a server for opts.
func New(opts Options) (*Server, error) {
	if opts.Dashboard == nil || opts.Artifacts == nil {
		return nil, errors.New("server needs a dashboard builder and an artifact resolver")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Server{
		dashboard: opts.Dashboard,
		artifacts: opts.Artifacts,
		log:       log,
		registry:  reg,
		metrics:   newMetrics(reg),
		pages:     pages,
	}, nil
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboardJSON)
	mux.HandleFunc("GET /logs/{key}/{path...}", s.handleLog)
	mux.HandleFunc("GET /raw/logs/{key}/{path...}", s.handleRawLog)
	mux.HandleFunc("GET /test-results/{key}/{path...}", s.handleTestResults)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	return s.withRequestLog(mux)
}

// Serve listens on addr and serves until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		s.log.Debug("closing the server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("shutdown")
		}
	}()

	s.log.WithField("addr", ln.Addr().String()).Info("serving dashboard")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
