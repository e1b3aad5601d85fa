/*
Package metrics exposes Prometheus instrumentation for the sync engine
and the three HTTP health surfaces (/health, /ready, /live) the operator
dashboard polls.

# Metric Catalog

	syncd_run_duration_seconds{sync_kind}              histogram, one full pipeline pass
	syncd_runs_total{sync_kind,outcome}                counter, outcome: success/error/stopped
	syncd_records_processed_total{sync_kind,decision}  counter, decision: inserted/updated/skipped/deleted
	syncd_scheduler_active_timers                      gauge, armed scheduler tickers
	syncd_whitelisted_users_total                      gauge, tenants eligible for sync
	syncd_sync_settings_enabled_total                  gauge, of 6 kinds, how many enabled
	syncd_store_query_duration_seconds{operation}       histogram, hot-path repository calls
	syncd_events_published_total{event_type}            counter, change-log events observed

# Collector

Collector samples the two point-in-time gauges (whitelisted users,
enabled settings) every 15 seconds from pkg/repository. Everything
else is pushed directly by the component that produced the
measurement — pkg/scheduler records each run's duration, outcome and
per-record decisions from the pipeline's Result, pkg/reconciler's
Listener records its own event counter — there is nothing else worth
polling. syncd_store_query_duration_seconds is registered but no
repository call observes it.

# Timer

Timer is a small stopwatch: NewTimer() captures a start time,
ObserveDuration/ObserveDurationVec feed a histogram, Duration reports
elapsed time without recording anything. pkg/scheduler wraps every
pipeline run in one.

# Health

health.go tracks named component health independently of the
Prometheus registry above: RegisterComponent/UpdateComponent record
whether a component (postgres, scheduler, ...) is up, GetHealth/
GetReadiness aggregate that into overall and critical-path status, and
HealthHandler/ReadyHandler/LivenessHandler serve it over HTTP. Readiness
additionally requires postgres and scheduler to both be registered and
healthy; liveness only proves the process itself is still scheduling
goroutines.

# See Also

  - pkg/scheduler for syncd_run_duration_seconds / syncd_runs_total / syncd_records_processed_total / syncd_scheduler_active_timers
  - pkg/reconciler for syncd_events_published_total
*/
package metrics
