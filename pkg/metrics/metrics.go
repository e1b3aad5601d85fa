package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncRunDuration times one full pipeline pass, end to end.
	SyncRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syncd_run_duration_seconds",
			Help:    "Duration of one sync pipeline run in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sync_kind"},
	)

	// SyncRunsTotal counts pipeline runs by outcome.
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncd_runs_total",
			Help: "Total number of sync pipeline runs by kind and outcome",
		},
		[]string{"sync_kind", "outcome"},
	)

	// RecordsProcessedTotal counts individual records reconciled, by kind
	// and the decision made for that record.
	RecordsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncd_records_processed_total",
			Help: "Total number of records reconciled by kind and decision",
		},
		[]string{"sync_kind", "decision"}, // decision: inserted/updated/skipped/deleted
	)

	// ActiveTimers reports how many scheduler ticker goroutines are
	// currently armed (one per (sync_kind, user) pair).
	ActiveTimers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncd_scheduler_active_timers",
			Help: "Number of currently armed scheduler timers",
		},
	)

	// WhitelistedUsersTotal is a point-in-time count, refreshed by
	// Collector.
	WhitelistedUsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncd_whitelisted_users_total",
			Help: "Total number of whitelisted users eligible for per-tenant sync",
		},
	)

	// SyncSettingsEnabledTotal reports how many of the six sync kinds are
	// currently enabled.
	SyncSettingsEnabledTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncd_sync_settings_enabled_total",
			Help: "Total number of sync kinds currently enabled",
		},
	)

	// StoreQueryDuration is a histogram for timing individual repository
	// calls; no repository call currently observes it.
	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syncd_store_query_duration_seconds",
			Help:    "Duration of repository calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// EventsPublishedTotal counts, by type, the events pkg/reconciler's
	// Listener receives from the broker.
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncd_events_published_total",
			Help: "Total number of change-log events published by type",
		},
		[]string{"event_type"},
	)
)

func init() {
	prometheus.MustRegister(SyncRunDuration)
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(RecordsProcessedTotal)
	prometheus.MustRegister(ActiveTimers)
	prometheus.MustRegister(WhitelistedUsersTotal)
	prometheus.MustRegister(SyncSettingsEnabledTotal)
	prometheus.MustRegister(StoreQueryDuration)
	prometheus.MustRegister(EventsPublishedTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
