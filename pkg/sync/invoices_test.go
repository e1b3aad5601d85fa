package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoiceStore struct {
	orderIDs map[string]string
	invoices map[string]string
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{orderIDs: map[string]string{}, invoices: map[string]string{}}
}

func (f *fakeInvoiceStore) FindOrderIDByNumber(ctx context.Context, userID, orderNumber string) (string, bool, error) {
	id, ok := f.orderIDs[orderNumber]
	return id, ok, nil
}

func (f *fakeInvoiceStore) UpdateInvoice(ctx context.Context, orderID, userID, invoiceNumber string, invoiceDate *int64) error {
	f.invoices[orderID] = invoiceNumber
	return nil
}

func TestRunInvoicesEnrichesKnownOrder(t *testing.T) {
	st := newFakeInvoiceStore()
	st.orderIDs["SO-1"] = "o1"

	parse := func(path string) ([]InvoiceRecord, error) {
		return []InvoiceRecord{{OrderNumber: "SO-1", InvoiceNumber: "INV-500"}}, nil
	}

	res := RunInvoices(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "INV-500", st.invoices["o1"])
}

func TestRunInvoicesSkipsUnknownOrder(t *testing.T) {
	st := newFakeInvoiceStore()

	parse := func(path string) ([]InvoiceRecord, error) {
		return []InvoiceRecord{{OrderNumber: "SO-UNKNOWN"}}, nil
	}

	res := RunInvoices(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Skipped)
}
