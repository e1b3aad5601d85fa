package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
)

// PriceParser turns a downloaded snapshot file into price records.
type PriceParser func(path string) ([]PriceRecord, error)

// RunPrices executes the shared prices pipeline. Every changed price
// emits a shared.price_history row computed from the old/new unit price
// (spec §4.6); a brand-new identity emits a PriceNew row with no old
// price.
func RunPrices(ctx context.Context, deps Deps, st PriceStore, parse PriceParser, progress ProgressFunc, shouldStop StopFunc) *Result {
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
	path, err := deps.DownloadSnapshot(ctx, nil)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("download prices snapshot: %v", err), ErrorKind: ErrNetwork, DurationMs: time.Since(started).Milliseconds()}
	}
	if deps.CleanupFile != nil {
		defer deps.CleanupFile(path)
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-download", 0, 0, 0, 0, 0, started)
	}

	report(20, "parsing prices")
	records, err := parse(path)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse prices snapshot: %v", err), ErrorKind: ErrParse, DurationMs: time.Since(started).Milliseconds()}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-parse", 0, 0, 0, 0, 0, started)
	}

	report(40, fmt.Sprintf("reconciling %d prices", len(records)))
	var inserted, updated, skipped int

	for i, rec := range records {
		if i%10 == 0 && checkpoint(shouldStop) {
			return stoppedResult("reconciliation", i, inserted, updated, skipped, 0, started)
		}

		p := rec.Price
		existing, found, err := st.GetForReconcile(ctx, &p)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("lookup price %s: %v", p.ProductID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}

		newHash := repository.PriceHash(&p)
		switch {
		case !found:
			if err := st.Upsert(ctx, &p); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("insert price %s: %v", p.ProductID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			if err := st.RecordHistory(ctx, &types.PriceHistory{
				ProductID:  p.ProductID,
				NewPrice:   p.UnitPrice,
				ChangeType: types.PriceNew,
				SyncDate:   deps.now(),
				Source:     rec.Source,
			}); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("record price history %s: %v", p.ProductID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			deps.publish(&events.Event{
				ID:       uuid.NewString(),
				Type:     events.EventPriceCreated,
				Message:  fmt.Sprintf("price for product %s recorded", p.ProductID),
				Metadata: map[string]string{"productId": p.ProductID, "syncSessionId": deps.SyncSessionID},
			})
			inserted++
		case existing.Hash != newHash:
			if err := st.Upsert(ctx, &p); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("update price %s: %v", p.ProductID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			oldPrice := existing.UnitPrice
			h := &types.PriceHistory{
				ProductID:  p.ProductID,
				OldPrice:   &oldPrice,
				NewPrice:   p.UnitPrice,
				ChangeType: priceDirection(existing.UnitPrice, p.UnitPrice),
				SyncDate:   deps.now(),
				Source:     rec.Source,
			}
			if pct, ok := percentageChange(existing.UnitPrice, p.UnitPrice); ok {
				h.PercentageChange = &pct
			}
			if err := st.RecordHistory(ctx, h); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("record price history %s: %v", p.ProductID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			evtType := events.EventPriceIncreased
			if h.ChangeType == types.PriceDecrease {
				evtType = events.EventPriceDecreased
			}
			meta := map[string]string{"productId": p.ProductID, "syncSessionId": deps.SyncSessionID}
			if h.PercentageChange != nil {
				meta["percentageChange"] = fmt.Sprintf("%.2f", *h.PercentageChange)
			}
			deps.publish(&events.Event{
				ID:       uuid.NewString(),
				Type:     evtType,
				Message:  fmt.Sprintf("price for product %s changed", p.ProductID),
				Metadata: meta,
			})
			updated++
		default:
			skipped++
		}
	}

	report(100, "done")
	return &Result{
		Success:    true,
		Processed:  len(records),
		Inserted:   inserted,
		Updated:    updated,
		Skipped:    skipped,
		DurationMs: time.Since(started).Milliseconds(),
	}
}

// priceDirection classifies a changed price as an increase or decrease;
// ties (equal decimal string reparsed to the same float) count as an
// increase, matching >= semantics rather than introducing a third
// "unchanged" bucket that can't happen on this path.
func priceDirection(oldPrice, newPrice string) types.PriceChangeType {
	o, errO := strconv.ParseFloat(oldPrice, 64)
	n, errN := strconv.ParseFloat(newPrice, 64)
	if errO == nil && errN == nil && n < o {
		return types.PriceDecrease
	}
	return types.PriceIncrease
}

func percentageChange(oldPrice, newPrice string) (float64, bool) {
	o, errO := strconv.ParseFloat(oldPrice, 64)
	n, errN := strconv.ParseFloat(newPrice, 64)
	if errO != nil || errN != nil || o == 0 {
		return 0, false
	}
	return (n - o) / o * 100, true
}
