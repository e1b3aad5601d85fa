// Package sync implements the six reconciliation pipelines: per-page
// download → parse → diff-and-apply, against injected dependencies.
// Every pipeline is a pure orchestration function — no pipeline holds
// state of its own, and none talks to the store directly; it only calls
// the narrow per-kind Store interface declared alongside it, which is
// implemented for production by pkg/repository and for tests by an
// in-memory fake (see *_test.go).
package sync

import (
	"context"
	"time"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/types"
)

// ErrorKind is the error taxonomy surfaced to the scheduler (spec §7).
type ErrorKind string

const (
	ErrNone             ErrorKind = ""
	ErrStopped          ErrorKind = "stopped"
	ErrNetwork          ErrorKind = "networkError"
	ErrParse            ErrorKind = "parseError"
	ErrStore            ErrorKind = "storeError"
	ErrInvariant        ErrorKind = "invariantViolation"
)

// OrderNumberChange records that an order's orderNumber moved even
// though its content hash did not (spec §4.4).
type OrderNumberChange struct {
	From string
	To   string
}

// Result is what every pipeline returns, win or lose.
type Result struct {
	Success     bool
	Processed   int
	Inserted    int
	Updated     int
	Skipped     int
	Deleted     int
	DurationMs  int64
	Error       string
	ErrorKind   ErrorKind

	// OrderNumberChanges is non-nil only for the orders pipeline, one
	// entry per record whose orderNumber changed with an unchanged hash.
	OrderNumberChanges map[string]OrderNumberChange
}

// ProgressFunc is the pipeline's progress channel: percent is
// monotonically non-decreasing, label is a human-readable stage name.
// Exactly one call with percent=100 happens on success (spec §6).
type ProgressFunc func(percent int, label string)

// StopFunc reports whether cooperative cancellation has been requested.
// Consulted at the four mandatory checkpoints spec §4.2/§5 define:
// start, post-download, post-parse, and every tenth record in the
// reconciliation loop.
type StopFunc func() bool

// Deps is the capability set every pipeline receives — the teacher's
// dependency-injection-by-struct pattern, generalized (spec §9: "a
// named capability set carried explicitly").
type Deps struct {
	// DownloadSnapshot fetches the upstream document for userID (nil for
	// shared kinds) and returns a local file path.
	DownloadSnapshot func(ctx context.Context, userID *string) (string, error)
	// CleanupFile best-effort removes a downloaded snapshot; it swallows
	// its own errors.
	CleanupFile func(path string)
	// SyncSessionID is a fresh identifier for this run, threaded into
	// change-log rows.
	SyncSessionID string
	// Now returns the current time; overridable in tests.
	Now func() time.Time
	// Publish notifies pkg/reconciler's change-log listener of a row that
	// changed. It is a secondary notification path: the pipeline has
	// already written the row (and, for products and prices, its
	// change-log row) via the Store interface by the time Publish is
	// called, so a nil Publish or a dropped event never
	// loses data, only the listener's observability of it.
	Publish func(evt *events.Event)
}

// publish calls d.Publish if set, swallowing a nil Deps.Publish so
// every pipeline can call it unconditionally.
func (d *Deps) publish(evt *events.Event) {
	if d.Publish != nil {
		d.Publish(evt)
	}
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// checkpoint reports whether the pipeline should abort at a mandatory
// stop point, wrapping the raw StopFunc so callers read intent at the
// call site.
func checkpoint(shouldStop StopFunc) bool {
	return shouldStop != nil && shouldStop()
}

// stoppedResult builds the Result for a cooperative-cancellation abort
// at the named stage.
func stoppedResult(stage string, processed, inserted, updated, skipped, deleted int, started time.Time) *Result {
	return &Result{
		Success:    false,
		Processed:  processed,
		Inserted:   inserted,
		Updated:    updated,
		Skipped:    skipped,
		Deleted:    deleted,
		DurationMs: time.Since(started).Milliseconds(),
		Error:      "stop requested during " + stage,
		ErrorKind:  ErrStopped,
	}
}

// CustomerRecord is one parsed customer from the snapshot.
type CustomerRecord struct {
	CustomerProfile string
	Customer        types.Customer
}

// OrderRecord is one parsed order from the snapshot, with its articles.
type OrderRecord struct {
	Order    types.Order
	Articles []types.OrderArticle
}

// ProductRecord is one parsed product from the snapshot. Hash is
// content-addressed by the parser, never recomputed (spec §4.1/§4.5).
type ProductRecord struct {
	Product types.Product
}

// PriceRecord is one parsed price from the snapshot.
type PriceRecord struct {
	Price  types.Price
	Source string
}

// DDTRecord enriches an order identified by OrderNumber.
type DDTRecord struct {
	OrderNumber string
	DDTNumber   string
	DDTDate     *time.Time
}

// InvoiceRecord enriches an order identified by OrderNumber.
type InvoiceRecord struct {
	OrderNumber   string
	InvoiceNumber string
	InvoiceDate   *time.Time
}
