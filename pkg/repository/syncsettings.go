package repository

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
)

// DefaultIntervalMinutes is seeded for every sync kind on first boot
// when system.sync_settings is empty (spec §2: "rehydrated from
// persisted configuration at start").
const DefaultIntervalMinutes = 15

// SeedDefaultSettings inserts the default {interval, enabled=true} row
// for every SyncKind that doesn't already have one. Idempotent.
func SeedDefaultSettings(ctx context.Context, q store.Querier) error {
	for _, kind := range types.AllSyncKinds {
		_, err := q.Exec(ctx, `
			INSERT INTO system.sync_settings (sync_type, interval_minutes, enabled, updated_at)
			VALUES ($1, $2, true, $3)
			ON CONFLICT (sync_type) DO NOTHING`, string(kind), DefaultIntervalMinutes, unixNow())
		if err != nil {
			return fmt.Errorf("seed sync setting %s: %w", kind, err)
		}
	}
	return nil
}

// GetAllSettings returns every sync setting, keyed by kind.
func GetAllSettings(ctx context.Context, q store.Querier) (map[types.SyncKind]types.SyncSetting, error) {
	rows, err := q.Query(ctx, `SELECT sync_type, interval_minutes, enabled, updated_at FROM system.sync_settings`)
	if err != nil {
		return nil, fmt.Errorf("get all sync settings: %w", err)
	}
	defer rows.Close()

	out := make(map[types.SyncKind]types.SyncSetting, len(types.AllSyncKinds))
	for rows.Next() {
		var (
			syncType string
			interval int
			enabled  bool
			updated  int64
		)
		if err := rows.Scan(&syncType, &interval, &enabled, &updated); err != nil {
			return nil, fmt.Errorf("scan sync setting: %w", err)
		}
		kind := types.SyncKind(syncType)
		out[kind] = types.SyncSetting{
			SyncType:        kind,
			IntervalMinutes: interval,
			Enabled:         enabled,
			UpdatedAt:       fromUnix(updated),
		}
	}
	return out, rows.Err()
}

// GetSetting returns one sync kind's setting.
func GetSetting(ctx context.Context, q store.Querier, kind types.SyncKind) (types.SyncSetting, bool, error) {
	var (
		interval int
		enabled  bool
		updated  int64
	)
	row := q.QueryRow(ctx, `
		SELECT interval_minutes, enabled, updated_at FROM system.sync_settings WHERE sync_type = $1`, string(kind))
	if err := row.Scan(&interval, &enabled, &updated); err != nil {
		if isNoRows(err) {
			return types.SyncSetting{}, false, nil
		}
		return types.SyncSetting{}, false, fmt.Errorf("get sync setting: %w", err)
	}
	return types.SyncSetting{
		SyncType:        kind,
		IntervalMinutes: interval,
		Enabled:         enabled,
		UpdatedAt:       fromUnix(updated),
	}, true, nil
}

// UpdateInterval persists a sync kind's configured interval. It does
// not touch running timers; Scheduler.UpdateInterval rearms those.
func UpdateInterval(ctx context.Context, q store.Querier, kind types.SyncKind, minutes int) error {
	_, err := q.Exec(ctx, `
		UPDATE system.sync_settings SET interval_minutes = $2, updated_at = $3
		WHERE sync_type = $1`, string(kind), minutes, unixNow())
	if err != nil {
		return fmt.Errorf("update sync interval: %w", err)
	}
	return nil
}

// SetEnabled flips a sync kind's enabled flag.
func SetEnabled(ctx context.Context, q store.Querier, kind types.SyncKind, enabled bool) error {
	_, err := q.Exec(ctx, `
		UPDATE system.sync_settings SET enabled = $2, updated_at = $3
		WHERE sync_type = $1`, string(kind), enabled, unixNow())
	if err != nil {
		return fmt.Errorf("set sync enabled: %w", err)
	}
	return nil
}
