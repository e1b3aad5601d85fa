package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDDTStore struct {
	orderIDs map[string]string // orderNumber -> orderID
	ddt      map[string]string // orderID -> ddtNumber
}

func newFakeDDTStore() *fakeDDTStore {
	return &fakeDDTStore{orderIDs: map[string]string{}, ddt: map[string]string{}}
}

func (f *fakeDDTStore) FindOrderIDByNumber(ctx context.Context, userID, orderNumber string) (string, bool, error) {
	id, ok := f.orderIDs[orderNumber]
	return id, ok, nil
}

func (f *fakeDDTStore) UpdateDDT(ctx context.Context, orderID, userID, ddtNumber string, ddtDate *int64) error {
	f.ddt[orderID] = ddtNumber
	return nil
}

func TestRunDDTEnrichesKnownOrder(t *testing.T) {
	st := newFakeDDTStore()
	st.orderIDs["SO-1"] = "o1"

	parse := func(path string) ([]DDTRecord, error) {
		return []DDTRecord{{OrderNumber: "SO-1", DDTNumber: "DDT-100"}}, nil
	}

	res := RunDDT(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "DDT-100", st.ddt["o1"])
}

func TestRunDDTSkipsUnknownOrder(t *testing.T) {
	st := newFakeDDTStore()

	parse := func(path string) ([]DDTRecord, error) {
		return []DDTRecord{{OrderNumber: "SO-UNKNOWN", DDTNumber: "DDT-1"}}, nil
	}

	res := RunDDT(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Updated)
}
