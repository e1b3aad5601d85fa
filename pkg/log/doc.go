/*
Package log provides structured logging for syncd via zerolog: one global
Logger initialized once at process start, and context-logger helpers that
attach fields every line from a code path should carry.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	kindLog := log.WithSyncKind("orders").With().Str("trigger", "scheduled").Logger()
	kindLog.Info().Msg("sync run started")

	userLog := log.WithUserID("acme")
	userLog.Warn().Err(err).Msg("download failed")

# Context loggers

  - WithComponent — named subsystem (scheduler, reconciler, a pipeline)
  - WithSyncKind — one of the six sync kinds
  - WithUserID — the tenant a per-tenant pipeline run is scoped to; empty
    for the two shared kinds, products and prices

# Design notes

JSONOutput picks zerolog's native encoder for production; the console
writer (human-readable, colorized) is for local development only. Both
paths share the same field vocabulary so switching between them never
changes what a query against the log stream matches.

# See Also

  - pkg/scheduler and pkg/sync for the main callers of WithSyncKind/WithUserID
  - https://github.com/rs/zerolog
*/
package log
