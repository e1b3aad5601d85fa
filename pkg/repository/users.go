package repository

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
)

// EnsureUser inserts the user identified upstream the first time it's
// seen; never updates or deletes an existing row (spec §3: never
// deleted by the sync engine).
func EnsureUser(ctx context.Context, q store.Querier, id, username string, role types.UserRole, whitelisted bool) error {
	_, err := q.Exec(ctx, `
		INSERT INTO agents.users (id, username, role, whitelisted)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`, id, username, string(role), whitelisted)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// ListWhitelistedUserIDs returns every whitelisted user id, used by the
// scheduler to install/refresh per-tenant timers (spec §4.8).
func ListWhitelistedUserIDs(ctx context.Context, q store.Querier) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT id FROM agents.users WHERE whitelisted`)
	if err != nil {
		return nil, fmt.Errorf("list whitelisted users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TouchLastCustomerSync records that a customer sync ran for userID.
func TouchLastCustomerSync(ctx context.Context, q store.Querier, userID string) error {
	_, err := q.Exec(ctx, `UPDATE agents.users SET last_customer_sync = $2 WHERE id = $1`, userID, unixNow())
	if err != nil {
		return fmt.Errorf("touch last customer sync: %w", err)
	}
	return nil
}

// TouchLastOrderSync records that an order sync ran for userID.
func TouchLastOrderSync(ctx context.Context, q store.Querier, userID string) error {
	_, err := q.Exec(ctx, `UPDATE agents.users SET last_order_sync = $2 WHERE id = $1`, userID, unixNow())
	if err != nil {
		return fmt.Errorf("touch last order sync: %w", err)
	}
	return nil
}
