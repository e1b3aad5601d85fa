package sync

import (
	"context"
	"testing"

	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priceKey struct {
	productID string
	qtyFrom   float64
}

type fakePriceStore struct {
	rows    map[priceKey]types.Price
	history []types.PriceHistory
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{rows: map[priceKey]types.Price{}}
}

func (f *fakePriceStore) keyOf(p *types.Price) priceKey {
	var qty float64
	if p.PriceQtyFrom != nil {
		qty = *p.PriceQtyFrom
	}
	return priceKey{productID: p.ProductID, qtyFrom: qty}
}

func (f *fakePriceStore) GetForReconcile(ctx context.Context, p *types.Price) (repository.ExistingPrice, bool, error) {
	row, ok := f.rows[f.keyOf(p)]
	if !ok {
		return repository.ExistingPrice{}, false, nil
	}
	return repository.ExistingPrice{Hash: row.Hash, UnitPrice: row.UnitPrice}, true, nil
}

func (f *fakePriceStore) Upsert(ctx context.Context, p *types.Price) error {
	p.Hash = repository.PriceHash(p)
	f.rows[f.keyOf(p)] = *p
	return nil
}

func (f *fakePriceStore) RecordHistory(ctx context.Context, h *types.PriceHistory) error {
	f.history = append(f.history, *h)
	return nil
}

func TestRunPricesEmitsNewHistoryOnFirstSight(t *testing.T) {
	st := newFakePriceStore()
	parse := func(path string) ([]PriceRecord, error) {
		return []PriceRecord{{Price: types.Price{ProductID: "p1", UnitPrice: "10.00"}, Source: "erp"}}, nil
	}

	res := RunPrices(context.Background(), testDeps(), st, parse, nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Inserted)
	require.Len(t, st.history, 1)
	assert.Equal(t, types.PriceNew, st.history[0].ChangeType)
	assert.Nil(t, st.history[0].OldPrice)
}

func TestRunPricesEmitsIncreaseAndDecrease(t *testing.T) {
	st := newFakePriceStore()
	existing := types.Price{ProductID: "p1", UnitPrice: "10.00"}
	existing.Hash = repository.PriceHash(&existing)
	st.rows[priceKey{productID: "p1"}] = existing

	parse := func(path string) ([]PriceRecord, error) {
		return []PriceRecord{{Price: types.Price{ProductID: "p1", UnitPrice: "12.00"}, Source: "erp"}}, nil
	}

	res := RunPrices(context.Background(), testDeps(), st, parse, nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, st.history, 1)
	assert.Equal(t, types.PriceIncrease, st.history[0].ChangeType)
	require.NotNil(t, st.history[0].PercentageChange)
	assert.InDelta(t, 20.0, *st.history[0].PercentageChange, 0.01)
}

func TestRunPricesSkipsUnchanged(t *testing.T) {
	st := newFakePriceStore()
	existing := types.Price{ProductID: "p1", UnitPrice: "10.00"}
	existing.Hash = repository.PriceHash(&existing)
	st.rows[priceKey{productID: "p1"}] = existing

	parse := func(path string) ([]PriceRecord, error) {
		return []PriceRecord{{Price: types.Price{ProductID: "p1", UnitPrice: "10.00"}}}, nil
	}

	res := RunPrices(context.Background(), testDeps(), st, parse, nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, st.history)
}
