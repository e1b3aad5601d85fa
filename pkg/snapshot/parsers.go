package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/cuemby/syncd/pkg/sync"
	"github.com/cuemby/syncd/pkg/types"
)

// row is one CSV record indexed by header column name. Columns absent
// from a given snapshot export simply read back "".
type row map[string]string

func readRows(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []row
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		rw := make(row, len(header))
		for i, col := range header {
			if i < len(record) {
				rw[col] = record[i]
			}
		}
		rows = append(rows, rw)
	}
	return rows, nil
}

func (r row) ptr(col string) *string {
	v, ok := r[col]
	if !ok || v == "" {
		return nil
	}
	return &v
}

func (r row) timePtr(col string) *time.Time {
	v, ok := r[col]
	if !ok || v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func (r row) floatPtr(col string) *float64 {
	v, ok := r[col]
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseCustomers implements sync.CustomerParser against a CSV export.
func ParseCustomers(path string) ([]sync.CustomerRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	records := make([]sync.CustomerRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, sync.CustomerRecord{
			CustomerProfile: r["customer_profile"],
			Customer: types.Customer{
				CustomerProfile:    r["customer_profile"],
				Name:               r["name"],
				VAT:                r["vat"],
				FiscalCode:         r["fiscal_code"],
				Address:            r["address"],
				City:               r["city"],
				Province:           r["province"],
				PostalCode:         r["postal_code"],
				Country:            r["country"],
				Phone:              r["phone"],
				Mobile:             r["mobile"],
				Email:              r["email"],
				PEC:                r["pec"],
				SDICode:            r["sdi_code"],
				ContactPerson:      r["contact_person"],
				PaymentTerms:       r["payment_terms"],
				PaymentMethod:      r["payment_method"],
				PriceList:          r["price_list"],
				DiscountGroup:      r["discount_group"],
				SalesAgent:         r["sales_agent"],
				Category:           r["category"],
				Segment:            r["segment"],
				Notes:              r["notes"],
				CreditLimit:        r["credit_limit"],
				IBAN:               r["iban"],
				BIC:                r["bic"],
				ShippingAddress:    r["shipping_address"],
				ShippingCity:       r["shipping_city"],
				ShippingProvince:   r["shipping_province"],
				ShippingPostalCode: r["shipping_postal_code"],
			},
		})
	}
	return records, nil
}

// ParseOrders implements sync.OrderParser. Article lines for an order
// share its ID; rows are grouped by id (in order of first appearance),
// the first row of an id supplies the order fields, and every row with
// a non-empty article_code is appended to that order's Articles.
func ParseOrders(path string) ([]sync.OrderRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*sync.OrderRecord)
	var order []string
	for _, r := range rows {
		id := r["id"]
		if id == "" {
			continue
		}
		rec, exists := byID[id]
		if !exists {
			rec = &sync.OrderRecord{Order: types.Order{
				ID:             id,
				OrderNumber:    r["order_number"],
				SalesStatus:    r["sales_status"],
				DocumentStatus: r["document_status"],
				TransferStatus: r["transfer_status"],
				TotalAmount:    r["total_amount"],
				TaxAmount:      r["tax_amount"],
				NetAmount:      r["net_amount"],
				DDTNumber:      r["ddt_number"],
				DDTDate:        r.timePtr("ddt_date"),
				InvoiceNumber:  r["invoice_number"],
				InvoiceDate:    r.timePtr("invoice_date"),
				CurrentState:   r["current_state"],
			}}
			byID[id] = rec
			order = append(order, id)
		}
		if code := r["article_code"]; code != "" {
			lineNo, _ := strconv.Atoi(r["line_number"])
			rec.Articles = append(rec.Articles, types.OrderArticle{
				OrderID:     id,
				LineNumber:  lineNo,
				ArticleCode: code,
				Description: r["description"],
				Quantity:    r["quantity"],
				UnitPrice:   r["unit_price"],
				LineTotal:   r["line_total"],
			})
		}
	}

	records := make([]sync.OrderRecord, 0, len(order))
	for _, id := range order {
		records = append(records, *byID[id])
	}
	return records, nil
}

// ParseProducts implements sync.ProductParser. Hash is carried by the
// export itself (spec: content-addressed, never recomputed here).
func ParseProducts(path string) ([]sync.ProductRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	records := make([]sync.ProductRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, sync.ProductRecord{
			Product: types.Product{
				ID:          r["id"],
				Name:        r["name"],
				Description: r["description"],
				Category:    r["category"],
				Brand:       r["brand"],
				SKU:         r["sku"],
				Unit:        r["unit"],
				VAT:         r["vat"],
				Price:       r["price"],
				ImageURL:    r["image_url"],
				Hash:        r["hash"],
			},
		})
	}
	return records, nil
}

// ParsePrices implements sync.PriceParser.
func ParsePrices(path string) ([]sync.PriceRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	records := make([]sync.PriceRecord, 0, len(rows))
	for _, r := range rows {
		validFrom, _ := time.Parse(time.RFC3339, r["price_valid_from"])
		records = append(records, sync.PriceRecord{
			Source: r["source"],
			Price: types.Price{
				ProductID:      r["product_id"],
				ItemSelection:  r.ptr("item_selection"),
				UnitPrice:      r["unit_price"],
				PriceValidFrom: validFrom,
				PriceValidTo:   r.timePtr("price_valid_to"),
				PriceQtyFrom:   r.floatPtr("price_qty_from"),
				PriceQtyTo:     r.floatPtr("price_qty_to"),
				Hash:           r["hash"],
			},
		})
	}
	return records, nil
}

// ParseDDT implements sync.DDTParser.
func ParseDDT(path string) ([]sync.DDTRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	records := make([]sync.DDTRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, sync.DDTRecord{
			OrderNumber: r["order_number"],
			DDTNumber:   r["ddt_number"],
			DDTDate:     r.timePtr("ddt_date"),
		})
	}
	return records, nil
}

// ParseInvoices implements sync.InvoiceParser.
func ParseInvoices(path string) ([]sync.InvoiceRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	records := make([]sync.InvoiceRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, sync.InvoiceRecord{
			OrderNumber:   r["order_number"],
			InvoiceNumber: r["invoice_number"],
			InvoiceDate:   r.timePtr("invoice_date"),
		})
	}
	return records, nil
}
