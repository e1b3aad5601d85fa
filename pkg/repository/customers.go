package repository

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/hashutil"
	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/types"
)

// customerHash computes a Customer's change-detection hash over the
// full descriptive field set, in the frozen order spec §4.1 requires.
// CustomerHash exposes customerHash for callers (the sync pipeline)
// that must compare a parsed record against a stored hash before
// deciding whether to write at all.
func CustomerHash(c *types.Customer) string { return customerHash(c) }

func customerHash(c *types.Customer) string {
	return hashutil.Compute(
		c.Name, c.VAT, c.FiscalCode, c.Address, c.City, c.Province, c.PostalCode,
		c.Country, c.Phone, c.Mobile, c.Email, c.PEC, c.SDICode, c.ContactPerson,
		c.PaymentTerms, c.PaymentMethod, c.PriceList, c.DiscountGroup, c.SalesAgent,
		c.Category, c.Segment, c.Notes, c.CreditLimit, c.IBAN, c.BIC,
		c.ShippingAddress, c.ShippingCity, c.ShippingProvince, c.ShippingPostalCode,
	)
}

// GetCustomerHash returns the stored hash for (customerProfile, userID),
// and whether a row exists at all.
func GetCustomerHash(ctx context.Context, q store.Querier, userID, customerProfile string) (hash string, found bool, err error) {
	row := q.QueryRow(ctx, `
		SELECT hash FROM agents.customers
		WHERE user_id = $1 AND customer_profile = $2`, userID, customerProfile)
	err = row.Scan(&hash)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get customer hash: %w", err)
	}
	return hash, true, nil
}

// UpsertCustomer inserts or fully updates a customer row. Callers decide
// insert vs. update vs. skip based on GetCustomerHash; this always
// writes all mutable columns plus the recomputed hash and lastSync.
func UpsertCustomer(ctx context.Context, q store.Querier, c *types.Customer) error {
	c.Hash = customerHash(c)
	c.LastSync = fromUnix(unixNow())
	_, err := q.Exec(ctx, `
		INSERT INTO agents.customers (
			user_id, customer_profile, name, vat, fiscal_code, address, city,
			province, postal_code, country, phone, mobile, email, pec, sdi_code,
			contact_person, payment_terms, payment_method, price_list,
			discount_group, sales_agent, category, segment, notes, credit_limit,
			iban, bic, shipping_address, shipping_city, shipping_province,
			shipping_postal_code, hash, last_sync
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32
		)
		ON CONFLICT (customer_profile, user_id) DO UPDATE SET
			name = EXCLUDED.name, vat = EXCLUDED.vat, fiscal_code = EXCLUDED.fiscal_code,
			address = EXCLUDED.address, city = EXCLUDED.city, province = EXCLUDED.province,
			postal_code = EXCLUDED.postal_code, country = EXCLUDED.country,
			phone = EXCLUDED.phone, mobile = EXCLUDED.mobile, email = EXCLUDED.email,
			pec = EXCLUDED.pec, sdi_code = EXCLUDED.sdi_code,
			contact_person = EXCLUDED.contact_person, payment_terms = EXCLUDED.payment_terms,
			payment_method = EXCLUDED.payment_method, price_list = EXCLUDED.price_list,
			discount_group = EXCLUDED.discount_group, sales_agent = EXCLUDED.sales_agent,
			category = EXCLUDED.category, segment = EXCLUDED.segment, notes = EXCLUDED.notes,
			credit_limit = EXCLUDED.credit_limit, iban = EXCLUDED.iban, bic = EXCLUDED.bic,
			shipping_address = EXCLUDED.shipping_address, shipping_city = EXCLUDED.shipping_city,
			shipping_province = EXCLUDED.shipping_province,
			shipping_postal_code = EXCLUDED.shipping_postal_code,
			hash = EXCLUDED.hash, last_sync = EXCLUDED.last_sync`,
		c.UserID, c.CustomerProfile, c.Name, c.VAT, c.FiscalCode, c.Address, c.City,
		c.Province, c.PostalCode, c.Country, c.Phone, c.Mobile, c.Email, c.PEC, c.SDICode,
		c.ContactPerson, c.PaymentTerms, c.PaymentMethod, c.PriceList, c.DiscountGroup,
		c.SalesAgent, c.Category, c.Segment, c.Notes, c.CreditLimit, c.IBAN, c.BIC,
		c.ShippingAddress, c.ShippingCity, c.ShippingProvince, c.ShippingPostalCode,
		c.Hash, toUnix(c.LastSync),
	)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// TouchCustomerSync refreshes last_sync (and nothing else) for a
// customer whose content hash is unchanged.
func TouchCustomerSync(ctx context.Context, q store.Querier, userID, customerProfile string) error {
	_, err := q.Exec(ctx, `
		UPDATE agents.customers SET last_sync = $3
		WHERE user_id = $1 AND customer_profile = $2`, userID, customerProfile, unixNow())
	if err != nil {
		return fmt.Errorf("touch customer sync: %w", err)
	}
	return nil
}

// PruneCustomers deletes every customer for userID whose profile is not
// in seenProfiles, in a single statement. Customers are a root entity:
// no cascade.
func PruneCustomers(ctx context.Context, q store.Querier, userID string, seenProfiles []string) (deleted int64, err error) {
	tag, err := q.Exec(ctx, `
		DELETE FROM agents.customers
		WHERE user_id = $1 AND customer_profile != ALL($2)`,
		userID, seenProfiles)
	if err != nil {
		return 0, fmt.Errorf("prune customers: %w", err)
	}
	return tag.RowsAffected(), nil
}
