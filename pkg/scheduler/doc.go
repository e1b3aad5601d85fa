/*
Package scheduler owns one goroutine-driven timer and one
mutual-exclusion token per (SyncKind, userID|"") pair, rearming on
settings changes and rejecting a second concurrent run rather than
queuing it.

# Architecture

	┌────────────────────────────────────────────────────────────┐
	│  Start(): seed defaults, list whitelisted users,            │
	│  install one ticker per (kind, tenant) pair                 │
	└────────────────┬───────────────────────────────────────────┘
	                 │
	                 ▼
	┌────────────────────────────────────────────────────────────┐
	│  per-(kind,tenant) goroutine: select on ticker.C / done      │
	│    tick(): re-read enabled flag, runGuarded()                │
	└────────────────┬───────────────────────────────────────────┘
	                 │ non-blocking token acquire
	                 ▼
	┌────────────────────────────────────────────────────────────┐
	│  PipelineRunner closure (bound to a pkg/sync Run* call)      │
	└────────────────────────────────────────────────────────────┘

Shared kinds (products, prices) install a single timer with an empty
userID; per-tenant kinds (customers, orders, ddt, invoices) install one
timer per whitelisted user, independently intervaled and independently
tokened.

A second ticker, started in Start() at the coarsest (longest) interval
among the per-tenant kinds, periodically re-reads the whitelist and
calls diffUserTimers to install timers for newly whitelisted users and
remove timers for de-whitelisted ones — the per-(kind,tenant) timers
installed at boot would otherwise never change until a process restart.

# Token semantics

Each (kind, tenant) pair owns exactly one runToken. Acquiring it is
non-blocking: if a run is already in flight — whether triggered by the
ticker, a manual request, or a forced sync — a second attempt returns
immediately rather than waiting or queuing. This matches the decision
that a manual request arriving while a periodic run holds the token is
rejected, not deduplicated into a pending queue.

# Entry points

  - Start/Stop — install and tear down every timer
  - RunManualFullSync — bypasses the interval gate, still respects the token
  - RunForcedSync — additionally clears target data (products: hard
    delete; prices: null every unitPrice) before running; administrative,
    the admin-role check is the caller's responsibility
  - UpdateInterval — persists the new interval and rearms every matching
    ticker in place via Ticker.Reset
  - SetEnabled — persists the flag; the next tick observes it

# Design notes

The ticker+select run-loop shape, and the "background goroutine per
resource key with its own stop channel" pattern, are carried over from
the teacher's scheduler/reconciler loops; what changed is the key space
— one loop per (kind, tenant) instead of one global 5-second tick over
every service — because this domain needs independent intervals and
independent serialization per resource, not a single shared cycle.

# See Also

  - pkg/sync for the six pipelines a PipelineRunner wraps
  - pkg/admin for the façade that calls RunManualFullSync/RunForcedSync/
    UpdateInterval/SetEnabled on behalf of an (already-authorized) caller
*/
package scheduler
