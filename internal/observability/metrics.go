// Package observability exposes Prometheus metrics for the upload pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters and their registry.
type Metrics struct {
	registry *prometheus.Registry

	UploadsReceived  prometheus.Counter
	UploadsDiscarded prometheus.Counter
	ReportsSaved     prometheus.Counter
	StageFailures    *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		UploadsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phototriage_uploads_received_total",
			Help: "Total number of upload requests received",
		}),
		UploadsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phototriage_uploads_discarded_total",
			Help: "Total number of classifications discarded as below the triage threshold",
		}),
		ReportsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phototriage_reports_saved_total",
			Help: "Total number of report rows persisted",
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phototriage_stage_failures_total",
			Help: "Total number of pipeline stage failures",
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{
		m.UploadsReceived,
		m.UploadsDiscarded,
		m.ReportsSaved,
		m.StageFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
