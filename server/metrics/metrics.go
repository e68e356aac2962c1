// Package metrics exports Prometheus metrics for the sync loop, the
// matcher and the assignment engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Exporter struct {
	registry *prometheus.Registry

	SyncRuns      *prometheus.CounterVec
	SyncDuration  prometheus.Histogram
	EventsFetched prometheus.Counter

	EventsMatched   *prometheus.CounterVec
	EventsExcluded  prometheus.Counter
	EventsUnmatched prometheus.Counter

	AssignmentsApplied prometheus.Counter
	AssignmentsFailed  prometheus.Counter

	WebhookDeliveries *prometheus.CounterVec
}

func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()
	e := &Exporter{registry: registry}

	e.SyncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "sync_runs_total",
		Help:      "Calendar sync runs by outcome.",
	}, []string{"status"})

	e.SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coachcal",
		Name:      "sync_duration_seconds",
		Help:      "Duration of a full calendar sync pass.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	e.EventsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "events_fetched_total",
		Help:      "Calendar events fetched from the provider.",
	})

	e.EventsMatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "events_matched_total",
		Help:      "Events matched to a client, by session type.",
	}, []string{"session_type"})

	e.EventsExcluded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "events_excluded_total",
		Help:      "Events filtered out by exclusion keywords.",
	})

	e.EventsUnmatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "events_unmatched_total",
		Help:      "Coaching-shaped events that matched no client.",
	})

	e.AssignmentsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "assignments_applied_total",
		Help:      "Events assigned to a client.",
	})

	e.AssignmentsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "assignments_failed_total",
		Help:      "Assignment attempts that failed.",
	})

	e.WebhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coachcal",
		Name:      "webhook_deliveries_total",
		Help:      "Webhook delivery attempts by outcome.",
	}, []string{"status"})

	registry.MustRegister(
		e.SyncRuns, e.SyncDuration, e.EventsFetched,
		e.EventsMatched, e.EventsExcluded, e.EventsUnmatched,
		e.AssignmentsApplied, e.AssignmentsFailed,
		e.WebhookDeliveries,
	)
	return e
}

// Handler serves the metrics endpoint for this exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
