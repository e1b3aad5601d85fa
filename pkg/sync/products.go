package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
)

// ProductParser turns a downloaded snapshot file into product records.
type ProductParser func(path string) ([]ProductRecord, error)

func productEventType(ct types.ProductChangeType) events.EventType {
	switch ct {
	case types.ProductCreated:
		return events.EventProductCreated
	case types.ProductDeleted:
		return events.EventProductDeleted
	case types.ProductRestored:
		return events.EventProductRestored
	default:
		return events.EventProductUpdated
	}
}

// RunProducts executes the shared (non-tenant) products pipeline. A
// product missing from the snapshot is soft-deleted, never
// hard-deleted; any product that reappears — even unchanged — is
// undeleted as a side effect of the upsert/touch call (spec §4.5/I4).
func RunProducts(ctx context.Context, deps Deps, st ProductStore, parse ProductParser, progress ProgressFunc, shouldStop StopFunc) *Result {
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
		return &Result{Success: false, Error: fmt.Sprintf("download products snapshot: %v", err), ErrorKind: ErrNetwork, DurationMs: time.Since(started).Milliseconds()}
	}
	if deps.CleanupFile != nil {
		defer deps.CleanupFile(path)
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-download", 0, 0, 0, 0, 0, started)
	}

	report(20, "parsing products")
	records, err := parse(path)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse products snapshot: %v", err), ErrorKind: ErrParse, DurationMs: time.Since(started).Milliseconds()}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-parse", 0, 0, 0, 0, 0, started)
	}

	report(40, fmt.Sprintf("reconciling %d products", len(records)))
	var inserted, updated, skipped int
	seenIDs := make([]string, 0, len(records))

	for i, rec := range records {
		if i%10 == 0 && checkpoint(shouldStop) {
			return stoppedResult("reconciliation", i, inserted, updated, skipped, 0, started)
		}

		p := rec.Product
		seenIDs = append(seenIDs, p.ID)

		state, found, err := st.GetState(ctx, p.ID)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("lookup product %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}

		newHash := p.Hash
		switch {
		case !found:
			if err := st.Upsert(ctx, &p); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("insert product %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			if err := st.RecordChange(ctx, p.ID, types.ProductCreated, deps.SyncSessionID); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("record product change %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			deps.publish(&events.Event{
				ID:       uuid.NewString(),
				Type:     events.EventProductCreated,
				Message:  fmt.Sprintf("product %s created", p.ID),
				Metadata: map[string]string{"productId": p.ID, "syncSessionId": deps.SyncSessionID},
			})
			inserted++
		case state.Hash != newHash:
			if err := st.Upsert(ctx, &p); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("update product %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			changeType := types.ProductUpdated
			if state.IsDeleted {
				changeType = types.ProductRestored
			}
			if err := st.RecordChange(ctx, p.ID, changeType, deps.SyncSessionID); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("record product change %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			deps.publish(&events.Event{
				ID:       uuid.NewString(),
				Type:     productEventType(changeType),
				Message:  fmt.Sprintf("product %s updated", p.ID),
				Metadata: map[string]string{"productId": p.ID, "syncSessionId": deps.SyncSessionID},
			})
			updated++
		default:
			if err := st.TouchSync(ctx, p.ID); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("touch product %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			if state.IsDeleted {
				if err := st.RecordChange(ctx, p.ID, types.ProductRestored, deps.SyncSessionID); err != nil {
					return &Result{Success: false, Error: fmt.Sprintf("record product change %s: %v", p.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
				}
				deps.publish(&events.Event{
					ID:       uuid.NewString(),
					Type:     events.EventProductRestored,
					Message:  fmt.Sprintf("product %s restored", p.ID),
					Metadata: map[string]string{"productId": p.ID, "syncSessionId": deps.SyncSessionID},
				})
			}
			skipped++
		}
	}

	// An empty snapshot is never treated as "every product gone" — see
	// the matching guard in RunCustomers.
	var goneIDs []string
	if len(records) == 0 {
		report(80, "skipping soft-delete: empty snapshot")
	} else {
		report(80, "soft-deleting missing products")
		goneIDs, err = st.SoftDeleteMissing(ctx, seenIDs)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("soft delete products: %v", err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}
	}
	for _, id := range goneIDs {
		if err := st.RecordChange(ctx, id, types.ProductDeleted, deps.SyncSessionID); err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("record product deletion %s: %v", id, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}
		deps.publish(&events.Event{
			ID:       uuid.NewString(),
			Type:     events.EventProductDeleted,
			Message:  fmt.Sprintf("product %s soft-deleted", id),
			Metadata: map[string]string{"productId": id, "syncSessionId": deps.SyncSessionID},
		})
	}

	report(100, "done")
	return &Result{
		Success:    true,
		Processed:  len(records),
		Inserted:   inserted,
		Updated:    updated,
		Skipped:    skipped,
		Deleted:    len(goneIDs),
		DurationMs: time.Since(started).Milliseconds(),
	}
}
