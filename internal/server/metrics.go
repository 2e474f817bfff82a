package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Artifact request outcomes.
const (
	outcomeFound     = "found"
	outcomeNotFound  = "not_found"
	outcomeForbidden = "forbidden"
	outcomeError     = "error"
)

type metrics struct {
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	builds         prometheus.Gauge
	artifacts      *prometheus.CounterVec
	requests       *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildbot_ci",
			Name:      "dashboard_renders_total",
			Help:      "Dashboard aggregations by result.",
		}, []string{"result"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "buildbot_ci",
			Name:      "dashboard_render_seconds",
			Help:      "Time spent aggregating the dashboard.",
			Buckets:   prometheus.DefBuckets,
		}),
		builds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "buildbot_ci",
			Name:      "dashboard_builds",
			Help:      "Builds with a report in the last rendered dashboard.",
		}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildbot_ci",
			Name:      "artifact_requests_total",
			Help:      "Artifact requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildbot_ci",
			Name:      "http_requests_total",
			Help:      "HTTP responses by status code.",
		}, []string{"code"}),
	}
	reg.MustRegister(m.renders, m.renderDuration, m.builds, m.artifacts, m.requests)
	return m
}
