package repository

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/hashutil"
	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// orderHash is deliberately minimal: it covers only the five fields
// that matter for change detection (id, salesStatus, documentStatus,
// transferStatus, totalAmount). orderNumber and every other Order field
// (DDT/invoice fields, currentState, ...) update silently, out of band
// from the hash.
// OrderHash exposes orderHash for the sync pipeline's pre-write compare.
func OrderHash(o *types.Order) string { return orderHash(o) }

func orderHash(o *types.Order) string {
	return hashutil.Compute(o.ID, o.SalesStatus, o.DocumentStatus, o.TransferStatus, o.TotalAmount)
}

// ExistingOrder is what the pipeline needs to know about a row that's
// already in the store before deciding insert/update/skip.
type ExistingOrder struct {
	Hash        string
	OrderNumber string
}

// GetOrderForReconcile returns the stored hash and orderNumber for
// (id, userID), and whether the row exists.
func GetOrderForReconcile(ctx context.Context, q store.Querier, userID, id string) (existing ExistingOrder, found bool, err error) {
	row := q.QueryRow(ctx, `
		SELECT hash, order_number FROM agents.order_records
		WHERE id = $1 AND user_id = $2`, id, userID)
	err = row.Scan(&existing.Hash, &existing.OrderNumber)
	if err != nil {
		if isNoRows(err) {
			return ExistingOrder{}, false, nil
		}
		return ExistingOrder{}, false, fmt.Errorf("get order: %w", err)
	}
	return existing, true, nil
}

// InsertOrder inserts a brand-new order row.
func InsertOrder(ctx context.Context, q store.Querier, o *types.Order) error {
	o.Hash = orderHash(o)
	now := unixNow()
	_, err := q.Exec(ctx, `
		INSERT INTO agents.order_records (
			id, user_id, order_number, sales_status, document_status, transfer_status,
			total_amount, tax_amount, net_amount, ddt_number, ddt_date, invoice_number,
			invoice_date, current_state, hash, last_sync, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$17)`,
		o.ID, o.UserID, o.OrderNumber, o.SalesStatus, o.DocumentStatus, o.TransferStatus,
		o.TotalAmount, o.TaxAmount, o.NetAmount, o.DDTNumber, toNullUnix(o.DDTDate),
		o.InvoiceNumber, toNullUnix(o.InvoiceDate), o.CurrentState, o.Hash, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateOrder overwrites all mutable columns of an existing order whose
// hash changed.
func UpdateOrder(ctx context.Context, q store.Querier, o *types.Order) error {
	o.Hash = orderHash(o)
	now := unixNow()
	_, err := q.Exec(ctx, `
		UPDATE agents.order_records SET
			order_number = $3, sales_status = $4, document_status = $5,
			transfer_status = $6, total_amount = $7, tax_amount = $8, net_amount = $9,
			ddt_number = $10, ddt_date = $11, invoice_number = $12, invoice_date = $13,
			current_state = $14, hash = $15, last_sync = $16, updated_at = $16
		WHERE id = $1 AND user_id = $2`,
		o.ID, o.UserID, o.OrderNumber, o.SalesStatus, o.DocumentStatus, o.TransferStatus,
		o.TotalAmount, o.TaxAmount, o.NetAmount, o.DDTNumber, toNullUnix(o.DDTDate),
		o.InvoiceNumber, toNullUnix(o.InvoiceDate), o.CurrentState, o.Hash, now,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// TouchOrderSync refreshes last_sync and, independently, orderNumber
// (which is tracked out of band from the hash per spec §4.1/§4.4) for
// an order whose content hash is unchanged.
func TouchOrderSync(ctx context.Context, q store.Querier, userID, id, orderNumber string) error {
	_, err := q.Exec(ctx, `
		UPDATE agents.order_records SET order_number = $3, last_sync = $4
		WHERE id = $1 AND user_id = $2`, id, userID, orderNumber, unixNow())
	if err != nil {
		return fmt.Errorf("touch order sync: %w", err)
	}
	return nil
}

// PruneOrders deletes every order for userID whose id is not in seenIDs.
// Per spec I3, child rows are deleted first, in the same transaction:
// order_state_history, then order_articles, then the order rows.
func PruneOrders(ctx context.Context, s *store.Store, userID string, seenIDs []string) (deleted int64, err error) {
	err = s.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id FROM agents.order_records
			WHERE user_id = $1 AND id != ALL($2)`, userID, seenIDs)
		if err != nil {
			return fmt.Errorf("select orders to prune: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan order id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate orders to prune: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM agents.order_state_history
			WHERE user_id = $1 AND order_id = ANY($2)`, userID, ids); err != nil {
			return fmt.Errorf("cascade delete order_state_history: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM agents.order_articles
			WHERE user_id = $1 AND order_id = ANY($2)`, userID, ids); err != nil {
			return fmt.Errorf("cascade delete order_articles: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			DELETE FROM agents.order_records
			WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
		if err != nil {
			return fmt.Errorf("delete order_records: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}

// UpsertOrderArticles replaces every article line of an order with the
// snapshot's current set (child of Order; simplest consistent approach
// given articles have no independent hash of their own).
func UpsertOrderArticles(ctx context.Context, q store.Querier, orderID, userID string, articles []*types.OrderArticle) error {
	if _, err := q.Exec(ctx, `
		DELETE FROM agents.order_articles WHERE order_id = $1 AND user_id = $2`, orderID, userID); err != nil {
		return fmt.Errorf("clear order articles: %w", err)
	}
	now := unixNow()
	for _, a := range articles {
		if _, err := q.Exec(ctx, `
			INSERT INTO agents.order_articles (
				order_id, user_id, line_number, article_code, description,
				quantity, unit_price, line_total, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			orderID, userID, a.LineNumber, a.ArticleCode, a.Description,
			a.Quantity, a.UnitPrice, a.LineTotal, now); err != nil {
			return fmt.Errorf("insert order article: %w", err)
		}
	}
	return nil
}

// UpdateState reads the current lifecycle state, writes newState, and
// appends a state-history row with a matching timestamp (spec §4.4).
func UpdateState(ctx context.Context, s *store.Store, orderID, userID, newState, actor, notes string, confidence *float64, source string) error {
	return s.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var oldState string
		row := tx.QueryRow(ctx, `
			SELECT current_state FROM agents.order_records
			WHERE id = $1 AND user_id = $2`, orderID, userID)
		if err := row.Scan(&oldState); err != nil {
			return fmt.Errorf("read current order state: %w", err)
		}

		now := unixNow()
		if _, err := tx.Exec(ctx, `
			UPDATE agents.order_records SET current_state = $3, updated_at = $4
			WHERE id = $1 AND user_id = $2`, orderID, userID, newState, now); err != nil {
			return fmt.Errorf("write new order state: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO agents.order_state_history (
				id, order_id, user_id, old_state, new_state, actor, notes,
				confidence, source, timestamp
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			uuid.NewString(), orderID, userID, oldState, newState, actor, notes,
			confidence, source, now); err != nil {
			return fmt.Errorf("append order state history: %w", err)
		}
		return nil
	})
}

// UpdateDDT writes the delivery-note fields onto an already-present
// order, used by the DDT pipeline.
func UpdateDDT(ctx context.Context, q store.Querier, orderID, userID, ddtNumber string, ddtDate *int64) error {
	_, err := q.Exec(ctx, `
		UPDATE agents.order_records SET ddt_number = $3, ddt_date = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2`, orderID, userID, ddtNumber, ddtDate, unixNow())
	if err != nil {
		return fmt.Errorf("update ddt: %w", err)
	}
	return nil
}

// UpdateInvoice writes the invoice fields onto an already-present order,
// used by the invoice pipeline.
func UpdateInvoice(ctx context.Context, q store.Querier, orderID, userID, invoiceNumber string, invoiceDate *int64) error {
	_, err := q.Exec(ctx, `
		UPDATE agents.order_records SET invoice_number = $3, invoice_date = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2`, orderID, userID, invoiceNumber, invoiceDate, unixNow())
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// FindOrderIDByNumber resolves (orderNumber, userID) to an order id, for
// the DDT/invoice pipelines which key off orderNumber, not id.
func FindOrderIDByNumber(ctx context.Context, q store.Querier, userID, orderNumber string) (id string, found bool, err error) {
	row := q.QueryRow(ctx, `
		SELECT id FROM agents.order_records
		WHERE user_id = $1 AND order_number = $2`, userID, orderNumber)
	err = row.Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find order by number: %w", err)
	}
	return id, true, nil
}

// SalesRecord is one row of GetLastSalesForArticle's result.
type SalesRecord struct {
	OrderID     string
	OrderNumber string
	Quantity    string
	UnitPrice   string
	CreatedAt   int64
}

// GetLastSalesForArticle is a read-only cross-join over
// order_articles x order_records ordered by creation descending (spec
// §4.4, not on the hot path).
func GetLastSalesForArticle(ctx context.Context, q store.Querier, articleCode string, limit int) ([]SalesRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.Query(ctx, `
		SELECT r.id, r.order_number, a.quantity, a.unit_price, r.created_at
		FROM agents.order_articles a
		JOIN agents.order_records r ON r.id = a.order_id AND r.user_id = a.user_id
		WHERE a.article_code = $1
		ORDER BY r.created_at DESC
		LIMIT $2`, articleCode, limit)
	if err != nil {
		return nil, fmt.Errorf("get last sales for article: %w", err)
	}
	defer rows.Close()

	var out []SalesRecord
	for rows.Next() {
		var rec SalesRecord
		if err := rows.Scan(&rec.OrderID, &rec.OrderNumber, &rec.Quantity, &rec.UnitPrice, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
