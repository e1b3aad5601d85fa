package sync

import (
	"context"
	"fmt"
	"time"
)

// InvoiceParser turns a downloaded snapshot file into invoice records.
type InvoiceParser func(path string) ([]InvoiceRecord, error)

// RunInvoices executes the invoice enrichment pipeline for one tenant,
// mirroring RunDDT: enrichment only, records that don't resolve to a
// known order are skipped (spec §4.7).
func RunInvoices(ctx context.Context, deps Deps, st InvoiceStore, parse InvoiceParser, userID string, progress ProgressFunc, shouldStop StopFunc) *Result {
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
		return &Result{Success: false, Error: fmt.Sprintf("download invoice snapshot: %v", err), ErrorKind: ErrNetwork, DurationMs: time.Since(started).Milliseconds()}
	}
	if deps.CleanupFile != nil {
		defer deps.CleanupFile(path)
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-download", 0, 0, 0, 0, 0, started)
	}

	report(20, "parsing invoice records")
	records, err := parse(path)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse invoice snapshot: %v", err), ErrorKind: ErrParse, DurationMs: time.Since(started).Milliseconds()}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-parse", 0, 0, 0, 0, 0, started)
	}

	report(40, fmt.Sprintf("reconciling %d invoice records", len(records)))
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

		var invoiceDate *int64
		if rec.InvoiceDate != nil {
			v := rec.InvoiceDate.Unix()
			invoiceDate = &v
		}
		if err := st.UpdateInvoice(ctx, orderID, userID, rec.InvoiceNumber, invoiceDate); err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("update invoice %s: %v", rec.OrderNumber, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
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
