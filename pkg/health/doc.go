/*
Package health provides the Checker/Status machinery used to track the
reachability of syncd's single hard dependency: Postgres.

# Architecture

	┌────────────────────────────────────────────────────────────┐
	│                     Checker interface                      │
	│  • Check(ctx) Result                                        │
	│  • Type() CheckType                                         │
	└───────────────────────────┬──────────────────────────────-─┘
	                            │
	                            ▼
	                   ┌──────────────────┐
	                   │  PostgresChecker │
	                   │  Pool.Ping(ctx)  │
	                   └──────────────────┘

A Status wraps a Checker's raw Result stream with retry-based hysteresis
(Config.Retries consecutive failures before flipping unhealthy, one
success to flip back) and an optional StartPeriod grace window, so a
slow-starting pool on process boot doesn't trip readiness before it has
had a chance to connect.

# Usage

	checker := health.NewPostgresChecker(store)
	status := health.NewStatus()
	cfg := health.DefaultConfig()

	result := checker.Check(ctx)
	if !status.InStartPeriod(cfg) {
		status.Update(result, cfg)
	}
	if !status.Healthy {
		// fail readiness
	}

# Design notes

There is exactly one Checker implementation because there is exactly one
thing worth checking: the shared Postgres pool every pipeline, the
scheduler, and pkg/admin depend on. The HTTP/TCP/exec checker variety
that container-orchestration health systems need doesn't apply here —
syncd has no sibling processes to probe.

# See Also

  - pkg/store for the pooled connection PostgresChecker pings
  - pkg/metrics for the HTTP readiness/liveness handlers built on top of
    a Status
*/
package health
