package repository

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
)

// ProductState is the stored hash and whether the product is currently
// soft-deleted, as returned by GetProductState for the upsert decision.
type ProductState struct {
	Hash      string
	IsDeleted bool
}

func GetProductState(ctx context.Context, q store.Querier, id string) (state ProductState, found bool, err error) {
	var deletedAt *int64
	row := q.QueryRow(ctx, `SELECT hash, deleted_at FROM shared.products WHERE id = $1`, id)
	if err = row.Scan(&state.Hash, &deletedAt); err != nil {
		if isNoRows(err) {
			return ProductState{}, false, nil
		}
		return ProductState{}, false, fmt.Errorf("get product state: %w", err)
	}
	state.IsDeleted = deletedAt != nil
	return state, true, nil
}

// UpsertProduct writes the product row with INSERT ... ON CONFLICT DO
// UPDATE, clearing deletedAt on every upsert so a reappearing product
// undeletes atomically (spec §4.5).
func UpsertProduct(ctx context.Context, q store.Querier, p *types.Product) error {
	now := unixNow()
	_, err := q.Exec(ctx, `
		INSERT INTO shared.products (
			id, name, description, category, brand, sku, unit, vat, price,
			image_url, image_local_path, deleted_at, hash, last_sync
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULL,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			category = EXCLUDED.category, brand = EXCLUDED.brand, sku = EXCLUDED.sku,
			unit = EXCLUDED.unit, vat = EXCLUDED.vat, price = EXCLUDED.price,
			image_url = EXCLUDED.image_url, image_local_path = EXCLUDED.image_local_path,
			deleted_at = NULL, hash = EXCLUDED.hash, last_sync = EXCLUDED.last_sync`,
		p.ID, p.Name, p.Description, p.Category, p.Brand, p.SKU, p.Unit, p.VAT, p.Price,
		p.ImageURL, p.ImageLocalPath, p.Hash, now,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// TouchProductSync refreshes last_sync for a product whose hash is
// unchanged. deletedAt is still cleared, matching UpsertProduct's
// undelete-on-any-appearance rule.
func TouchProductSync(ctx context.Context, q store.Querier, id string) error {
	_, err := q.Exec(ctx, `
		UPDATE shared.products SET last_sync = $2, deleted_at = NULL WHERE id = $1`, id, unixNow())
	if err != nil {
		return fmt.Errorf("touch product sync: %w", err)
	}
	return nil
}

// SoftDeleteProducts marks deletedAt=now for every live product not in
// seenIDs.
func SoftDeleteProducts(ctx context.Context, q store.Querier, seenIDs []string) (ids []string, err error) {
	rows, err := q.Query(ctx, `
		UPDATE shared.products SET deleted_at = $1
		WHERE deleted_at IS NULL AND id != ALL($2)
		RETURNING id`, unixNow(), seenIDs)
	if err != nil {
		return nil, fmt.Errorf("soft delete products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan soft-deleted product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordProductChange writes one audit row to shared.product_changes.
func RecordProductChange(ctx context.Context, q store.Querier, productID string, changeType types.ProductChangeType, syncSessionID string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO shared.product_changes (id, product_id, change_type, changed_at, sync_session_id)
		VALUES ($1,$2,$3,$4,$5)`, uuid.NewString(), productID, string(changeType), unixNow(), syncSessionID)
	if err != nil {
		return fmt.Errorf("record product change: %w", err)
	}
	return nil
}

// ClearAllProducts hard-deletes every product row, used by
// runForcedSync(products) to repopulate from scratch.
func ClearAllProducts(ctx context.Context, q store.Querier) error {
	if _, err := q.Exec(ctx, `DELETE FROM shared.products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	return nil
}
