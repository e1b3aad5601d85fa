package sync

import (
	"context"
	"fmt"
	"time"
)

// DDTParser turns a downloaded snapshot file into delivery-note records.
type DDTParser func(path string) ([]DDTRecord, error)

// RunDDT executes the delivery-note enrichment pipeline for one tenant.
// It never inserts or deletes orders — a record whose orderNumber
// doesn't resolve to a known order is skipped (spec §4.7: this pipeline
// only enriches rows the orders pipeline already created).
func RunDDT(ctx context.Context, deps Deps, st DDTStore, parse DDTParser, userID string, progress ProgressFunc, shouldStop StopFunc) *Result {
	started := time.Now()
	report := func(pct int, label string) {
		if progress != nil {
			progress(pct, label)
		}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("start", 0, 0, 0, 0, 0, started)
	}

	report(5, "downloading snapshot")
	path, err := deps.DownloadSnapshot(ctx, &userID)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("download ddt snapshot: %v", err), ErrorKind: ErrNetwork, DurationMs: time.Since(started).Milliseconds()}
	}
	if deps.CleanupFile != nil {
		defer deps.CleanupFile(path)
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-download", 0, 0, 0, 0, 0, started)
	}

	report(20, "parsing ddt records")
	records, err := parse(path)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse ddt snapshot: %v", err), ErrorKind: ErrParse, DurationMs: time.Since(started).Milliseconds()}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-parse", 0, 0, 0, 0, 0, started)
	}

	report(40, fmt.Sprintf("reconciling %d ddt records", len(records)))
	var updated, skipped int

	for i, rec := range records {
		if i%10 == 0 && checkpoint(shouldStop) {
			return stoppedResult("reconciliation", i, 0, updated, skipped, 0, started)
		}

		orderID, found, err := st.FindOrderIDByNumber(ctx, userID, rec.OrderNumber)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("resolve order %s: %v", rec.OrderNumber, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}
		if !found {
			skipped++
			continue
		}

		var ddtDate *int64
		if rec.DDTDate != nil {
			v := rec.DDTDate.Unix()
			ddtDate = &v
		}
		if err := st.UpdateDDT(ctx, orderID, userID, rec.DDTNumber, ddtDate); err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("update ddt %s: %v", rec.OrderNumber, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}
		updated++
	}

	report(100, "done")
	return &Result{
		Success:    true,
		Processed:  len(records),
		Updated:    updated,
		Skipped:    skipped,
		DurationMs: time.Since(started).Milliseconds(),
	}
}
