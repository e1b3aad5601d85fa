package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
)

// OrderParser turns a downloaded snapshot file into order records.
type OrderParser func(path string) ([]OrderRecord, error)

// RunOrders executes the orders pipeline for one tenant. Per spec §4.4,
// a record whose content hash is unchanged but whose orderNumber moved
// still writes the new orderNumber and is reported separately via
// Result.OrderNumberChanges rather than counted as updated.
func RunOrders(ctx context.Context, deps Deps, st OrderStore, parse OrderParser, userID string, progress ProgressFunc, shouldStop StopFunc) *Result {
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
		return &Result{Success: false, Error: fmt.Sprintf("download orders snapshot: %v", err), ErrorKind: ErrNetwork, DurationMs: time.Since(started).Milliseconds()}
	}
	if deps.CleanupFile != nil {
		defer deps.CleanupFile(path)
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-download", 0, 0, 0, 0, 0, started)
	}

	report(20, "parsing orders")
	records, err := parse(path)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse orders snapshot: %v", err), ErrorKind: ErrParse, DurationMs: time.Since(started).Milliseconds()}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-parse", 0, 0, 0, 0, 0, started)
	}

	report(40, fmt.Sprintf("reconciling %d orders", len(records)))
	var inserted, updated, skipped int
	seenIDs := make([]string, 0, len(records))
	numberChanges := map[string]OrderNumberChange{}

	for i, rec := range records {
		if i%10 == 0 && checkpoint(shouldStop) {
			return stoppedResult("reconciliation", i, inserted, updated, skipped, 0, started)
		}

		o := rec.Order
		o.UserID = userID
		seenIDs = append(seenIDs, o.ID)

		existing, found, err := st.GetForReconcile(ctx, userID, o.ID)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("lookup order %s: %v", o.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}

		newHash := repository.OrderHash(&o)
		switch {
		case !found:
			if err := st.Insert(ctx, &o); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("insert order %s: %v", o.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			if err := st.UpsertArticles(ctx, o.ID, userID, articlePtrs(rec.Articles)); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("insert order articles %s: %v", o.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			inserted++
			deps.publish(&events.Event{
				ID:      uuid.NewString(),
				Type:    events.EventOrderCreated,
				Message: fmt.Sprintf("order %s created", o.ID),
				Metadata: map[string]string{
					"orderId":       o.ID,
					"userId":        userID,
					"syncSessionId": deps.SyncSessionID,
				},
			})
		case existing.Hash != newHash:
			if err := st.Update(ctx, &o); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("update order %s: %v", o.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			if err := st.UpsertArticles(ctx, o.ID, userID, articlePtrs(rec.Articles)); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("update order articles %s: %v", o.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			updated++
			deps.publish(&events.Event{
				ID:      uuid.NewString(),
				Type:    events.EventOrderUpdated,
				Message: fmt.Sprintf("order %s updated", o.ID),
				Metadata: map[string]string{
					"orderId":       o.ID,
					"userId":        userID,
					"syncSessionId": deps.SyncSessionID,
				},
			})
		default:
			if err := st.TouchSync(ctx, userID, o.ID, o.OrderNumber); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("touch order %s: %v", o.ID, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			if existing.OrderNumber != o.OrderNumber {
				numberChanges[o.ID] = OrderNumberChange{From: existing.OrderNumber, To: o.OrderNumber}
				deps.publish(&events.Event{
					ID:      uuid.NewString(),
					Type:    events.EventOrderStateMoved,
					Message: fmt.Sprintf("order %s renumbered %s -> %s", o.ID, existing.OrderNumber, o.OrderNumber),
					Metadata: map[string]string{
						"orderId":       o.ID,
						"userId":        userID,
						"oldState":      existing.OrderNumber,
						"newState":      o.OrderNumber,
						"syncSessionId": deps.SyncSessionID,
					},
				})
			}
			skipped++
		}
	}

	// An empty snapshot is never treated as "every order deleted" — see
	// the matching guard in RunCustomers.
	var deleted int64
	if len(records) == 0 {
		report(80, "skipping prune: empty snapshot")
	} else {
		report(80, "pruning orders")
		deleted, err = st.Prune(ctx, userID, seenIDs)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("prune orders: %v", err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}
	}
	if deleted > 0 {
		deps.publish(&events.Event{
			ID:      uuid.NewString(),
			Type:    events.EventOrderDeleted,
			Message: fmt.Sprintf("%d orders pruned for user %s", deleted, userID),
			Metadata: map[string]string{
				"userId":        userID,
				"count":         fmt.Sprintf("%d", deleted),
				"syncSessionId": deps.SyncSessionID,
			},
		})
	}

	report(100, "done")
	res := &Result{
		Success:    true,
		Processed:  len(records),
		Inserted:   inserted,
		Updated:    updated,
		Skipped:    skipped,
		Deleted:    int(deleted),
		DurationMs: time.Since(started).Milliseconds(),
	}
	if len(numberChanges) > 0 {
		res.OrderNumberChanges = numberChanges
	}
	return res
}

func articlePtrs(articles []types.OrderArticle) []*types.OrderArticle {
	out := make([]*types.OrderArticle, len(articles))
	for i := range articles {
		out[i] = &articles[i]
	}
	return out
}
