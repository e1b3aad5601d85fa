package repository

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/hashutil"
	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
)

// PriceHash exposes priceHash for the sync pipeline's pre-write compare.
func PriceHash(p *types.Price) string { return priceHash(p) }

func priceHash(p *types.Price) string {
	return hashutil.Compute(p.ProductID, p.UnitPrice, p.PriceValidFrom, p.PriceValidTo, p.PriceQtyFrom, p.PriceQtyTo)
}

// ExistingPrice is what the pipeline needs before deciding insert vs
// update vs skip for a price row.
type ExistingPrice struct {
	Hash      string
	UnitPrice string
}

// GetPriceForReconcile looks up a price by the §I5 temporal identity:
// (productID, priceValidFrom, COALESCE(priceQtyFrom, 0)).
func GetPriceForReconcile(ctx context.Context, q store.Querier, p *types.Price) (existing ExistingPrice, found bool, err error) {
	row := q.QueryRow(ctx, `
		SELECT hash, unit_price FROM shared.prices
		WHERE product_id = $1 AND price_valid_from = $2
		  AND COALESCE(price_qty_from, 0) = COALESCE($3, 0)`,
		p.ProductID, p.PriceValidFrom.Unix(), p.PriceQtyFrom)
	err = row.Scan(&existing.Hash, &existing.UnitPrice)
	if err != nil {
		if isNoRows(err) {
			return ExistingPrice{}, false, nil
		}
		return ExistingPrice{}, false, fmt.Errorf("get price: %w", err)
	}
	return existing, true, nil
}

// GetPriceByFullIdentity additionally matches itemSelection with
// IS NOT DISTINCT FROM, so two prices that both have a null
// itemSelection are considered the same row for this lookup (spec §8
// boundary behavior).
func GetPriceByFullIdentity(ctx context.Context, q store.Querier, productID string, itemSelection *string, validFrom int64, qtyFrom *float64) (hash string, found bool, err error) {
	row := q.QueryRow(ctx, `
		SELECT hash FROM shared.prices
		WHERE product_id = $1 AND price_valid_from = $2
		  AND COALESCE(price_qty_from, 0) = COALESCE($3, 0)
		  AND item_selection IS NOT DISTINCT FROM $4`,
		productID, validFrom, qtyFrom, itemSelection)
	err = row.Scan(&hash)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get price by full identity: %w", err)
	}
	return hash, true, nil
}

// UpsertPrice writes the price row keyed on the §I5 temporal identity.
// The unique index backing ON CONFLICT here is
// (product_id, price_valid_from, COALESCE(price_qty_from, 0)).
func UpsertPrice(ctx context.Context, q store.Querier, p *types.Price) error {
	p.Hash = priceHash(p)
	_, err := q.Exec(ctx, `
		INSERT INTO shared.prices (
			product_id, item_selection, unit_price, price_valid_from,
			price_valid_to, price_qty_from, price_qty_to, hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (product_id, price_valid_from, (COALESCE(price_qty_from, 0))) DO UPDATE SET
			item_selection = EXCLUDED.item_selection, unit_price = EXCLUDED.unit_price,
			price_valid_to = EXCLUDED.price_valid_to, price_qty_to = EXCLUDED.price_qty_to,
			hash = EXCLUDED.hash`,
		p.ProductID, p.ItemSelection, p.UnitPrice, p.PriceValidFrom.Unix(),
		toNullUnix(p.PriceValidTo), p.PriceQtyFrom, p.PriceQtyTo, p.Hash,
	)
	if err != nil {
		return fmt.Errorf("upsert price: %w", err)
	}
	return nil
}

// RecordPriceHistory writes one audit row to shared.price_history.
// Called whenever a price value changes; on initial insert changeType
// is PriceNew with oldPrice nil (spec §4.6).
func RecordPriceHistory(ctx context.Context, q store.Querier, h *types.PriceHistory) error {
	_, err := q.Exec(ctx, `
		INSERT INTO shared.price_history (
			id, product_id, variant_id, old_price, new_price,
			percentage_change, change_type, sync_date, source
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		uuid.NewString(), h.ProductID, h.VariantID, h.OldPrice, h.NewPrice,
		h.PercentageChange, string(h.ChangeType), unixNow(), h.Source,
	)
	if err != nil {
		return fmt.Errorf("record price history: %w", err)
	}
	return nil
}

// ResetAllPrices is the forced-sync reset: a blanket UPDATE nulling
// unit_price with no price_history emission, matching spec §9's
// documented-UB resolution.
func ResetAllPrices(ctx context.Context, q store.Querier) error {
	if _, err := q.Exec(ctx, `UPDATE shared.prices SET unit_price = NULL`); err != nil {
		return fmt.Errorf("reset prices: %w", err)
	}
	return nil
}
