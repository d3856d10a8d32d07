// Package metrics holds the prometheus collectors for webhook handling and
// pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook results.
const (
	ResultChallenge    = "challenge"
	ResultUnauthorized = "unauthorized"
	ResultIgnored      = "ignored"
	ResultDispatched   = "dispatched"
	ResultBadRequest   = "bad_request"
	ResultPanic        = "panic"
	ResultDev          = "dev"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	webhookRequests *prometheus.CounterVec
	pipelineRuns    *prometheus.CounterVec
	pipelineSeconds prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		webhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "charitybot",
			Name:      "webhook_requests_total",
			Help:      "Webhook requests by handling result.",
		}, []string{"result"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "charitybot",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome and error kind.",
		}, []string{"outcome", "error_kind"}),
		pipelineSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "charitybot",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a pipeline run from fetch to final delivery.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
		}),
	}
	reg.MustRegister(
		m.webhookRequests,
		m.pipelineRuns,
		m.pipelineSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveWebhook(result string) {
	if m == nil {
		return
	}
	m.webhookRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRun(outcome, errorKind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome, errorKind).Inc()
	m.pipelineSeconds.Observe(elapsed.Seconds())
}
