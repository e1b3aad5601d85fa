package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/repository"
	"github.com/google/uuid"
)

// CustomerParser turns a downloaded snapshot file into records. Swapped
// for a fake in tests; production wires pkg/snapshot's CSV decoder.
type CustomerParser func(path string) ([]CustomerRecord, error)

// RunCustomers executes the customers pipeline for one tenant: download,
// parse, reconcile each record against CustomerStore, prune anything not
// seen (spec §4.3).
func RunCustomers(ctx context.Context, deps Deps, st CustomerStore, parse CustomerParser, userID string, progress ProgressFunc, shouldStop StopFunc) *Result {
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
		return &Result{Success: false, Error: fmt.Sprintf("download customers snapshot: %v", err), ErrorKind: ErrNetwork, DurationMs: time.Since(started).Milliseconds()}
	}
	if deps.CleanupFile != nil {
		defer deps.CleanupFile(path)
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-download", 0, 0, 0, 0, 0, started)
	}

	report(20, "parsing customers")
	records, err := parse(path)
	if err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse customers snapshot: %v", err), ErrorKind: ErrParse, DurationMs: time.Since(started).Milliseconds()}
	}

	if checkpoint(shouldStop) {
		return stoppedResult("post-parse", 0, 0, 0, 0, 0, started)
	}

	report(40, fmt.Sprintf("reconciling %d customers", len(records)))
	var inserted, updated, skipped int
	seenProfiles := make([]string, 0, len(records))

	for i, rec := range records {
		if i%10 == 0 && checkpoint(shouldStop) {
			return stoppedResult("reconciliation", i, inserted, updated, skipped, 0, started)
		}

		seenProfiles = append(seenProfiles, rec.CustomerProfile)
		c := rec.Customer
		c.UserID = userID
		c.CustomerProfile = rec.CustomerProfile

		existingHash, found, err := st.GetHash(ctx, userID, rec.CustomerProfile)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("lookup customer %s: %v", rec.CustomerProfile, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}

		newHash := repository.CustomerHash(&c)
		switch {
		case !found:
			if err := st.Upsert(ctx, &c); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("insert customer %s: %v", rec.CustomerProfile, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			inserted++
			deps.publish(&events.Event{
				ID:      uuid.NewString(),
				Type:    events.EventCustomerCreated,
				Message: fmt.Sprintf("customer %s created", rec.CustomerProfile),
				Metadata: map[string]string{
					"customerProfile": rec.CustomerProfile,
					"userId":          userID,
					"syncSessionId":   deps.SyncSessionID,
				},
			})
		case existingHash != newHash:
			if err := st.Upsert(ctx, &c); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("update customer %s: %v", rec.CustomerProfile, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			updated++
			deps.publish(&events.Event{
				ID:      uuid.NewString(),
				Type:    events.EventCustomerUpdated,
				Message: fmt.Sprintf("customer %s updated", rec.CustomerProfile),
				Metadata: map[string]string{
					"customerProfile": rec.CustomerProfile,
					"userId":          userID,
					"syncSessionId":   deps.SyncSessionID,
				},
			})
		default:
			if err := st.TouchSync(ctx, userID, rec.CustomerProfile); err != nil {
				return &Result{Success: false, Error: fmt.Sprintf("touch customer %s: %v", rec.CustomerProfile, err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
			}
			skipped++
		}
	}

	// An empty snapshot is never treated as "every customer deleted" —
	// seenProfiles would be empty, and an empty slice matches every row
	// in the store's NOT IN/ALL comparison, pruning the whole tenant.
	var deleted int64
	if len(records) == 0 {
		report(80, "skipping prune: empty snapshot")
	} else {
		report(80, "pruning customers")
		deleted, err = st.Prune(ctx, userID, seenProfiles)
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("prune customers: %v", err), ErrorKind: ErrStore, DurationMs: time.Since(started).Milliseconds()}
		}
	}
	if deleted > 0 {
		deps.publish(&events.Event{
			ID:      uuid.NewString(),
			Type:    events.EventCustomerDeleted,
			Message: fmt.Sprintf("%d customers pruned for user %s", deleted, userID),
			Metadata: map[string]string{
				"userId":        userID,
				"count":         fmt.Sprintf("%d", deleted),
				"syncSessionId": deps.SyncSessionID,
			},
		})
	}

	report(100, "done")
	return &Result{
		Success:    true,
		Processed:  len(records),
		Inserted:   inserted,
		Updated:    updated,
		Skipped:    skipped,
		Deleted:    int(deleted),
		DurationMs: time.Since(started).Milliseconds(),
	}
}
