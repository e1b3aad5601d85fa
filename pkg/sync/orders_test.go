package sync

import (
	"context"
	"testing"

	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	rows     map[string]types.Order // key: userID|id
	articles map[string][]*types.OrderArticle
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{rows: map[string]types.Order{}, articles: map[string][]*types.OrderArticle{}}
}

func (f *fakeOrderStore) key(userID, id string) string { return userID + "|" + id }

func (f *fakeOrderStore) GetForReconcile(ctx context.Context, userID, id string) (repository.ExistingOrder, bool, error) {
	o, ok := f.rows[f.key(userID, id)]
	if !ok {
		return repository.ExistingOrder{}, false, nil
	}
	return repository.ExistingOrder{Hash: o.Hash, OrderNumber: o.OrderNumber}, true, nil
}

func (f *fakeOrderStore) Insert(ctx context.Context, o *types.Order) error {
	o.Hash = repository.OrderHash(o)
	f.rows[f.key(o.UserID, o.ID)] = *o
	return nil
}

func (f *fakeOrderStore) Update(ctx context.Context, o *types.Order) error {
	o.Hash = repository.OrderHash(o)
	f.rows[f.key(o.UserID, o.ID)] = *o
	return nil
}

func (f *fakeOrderStore) TouchSync(ctx context.Context, userID, id, orderNumber string) error {
	o := f.rows[f.key(userID, id)]
	o.OrderNumber = orderNumber
	f.rows[f.key(userID, id)] = o
	return nil
}

func (f *fakeOrderStore) UpsertArticles(ctx context.Context, orderID, userID string, articles []*types.OrderArticle) error {
	f.articles[f.key(userID, orderID)] = articles
	return nil
}

func (f *fakeOrderStore) Prune(ctx context.Context, userID string, seenIDs []string) (int64, error) {
	seen := map[string]bool{}
	for _, id := range seenIDs {
		seen[id] = true
	}
	var deleted int64
	for k, o := range f.rows {
		if o.UserID != userID {
			continue
		}
		if !seen[o.ID] {
			delete(f.rows, k)
			deleted++
		}
	}
	return deleted, nil
}

func TestRunOrdersInsertsWithArticles(t *testing.T) {
	st := newFakeOrderStore()
	parse := func(path string) ([]OrderRecord, error) {
		return []OrderRecord{{
			Order:    types.Order{ID: "o1", OrderNumber: "SO-1", SalesStatus: "Open", TotalAmount: "100.00"},
			Articles: []types.OrderArticle{{LineNumber: 1, ArticleCode: "A1", Quantity: "2"}},
		}}, nil
	}

	res := RunOrders(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Inserted)
	assert.Len(t, st.articles["acme|o1"], 1)
}

func TestRunOrdersTracksOrderNumberChangeWithoutHashChange(t *testing.T) {
	st := newFakeOrderStore()
	existing := types.Order{ID: "o1", UserID: "acme", OrderNumber: "SO-1", SalesStatus: "Open", TotalAmount: "100.00"}
	existing.Hash = repository.OrderHash(&existing)
	st.rows["acme|o1"] = existing

	parse := func(path string) ([]OrderRecord, error) {
		return []OrderRecord{{Order: types.Order{ID: "o1", OrderNumber: "SO-1-RENUMBERED", SalesStatus: "Open", TotalAmount: "100.00"}}}, nil
	}

	res := RunOrders(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Skipped)
	require.Contains(t, res.OrderNumberChanges, "o1")
	assert.Equal(t, "SO-1", res.OrderNumberChanges["o1"].From)
	assert.Equal(t, "SO-1-RENUMBERED", res.OrderNumberChanges["o1"].To)
}

func TestRunOrdersPrunesMissing(t *testing.T) {
	st := newFakeOrderStore()
	stale := types.Order{ID: "stale", UserID: "acme", OrderNumber: "SO-9"}
	stale.Hash = repository.OrderHash(&stale)
	st.rows["acme|stale"] = stale

	parse := func(path string) ([]OrderRecord, error) {
		return []OrderRecord{{Order: types.Order{ID: "current", OrderNumber: "SO-1", SalesStatus: "Open", TotalAmount: "1.00"}}}, nil
	}

	res := RunOrders(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, int(res.Deleted))
	assert.NotContains(t, st.rows, "acme|stale")
}

func TestRunOrdersSkipsPruneOnEmptySnapshot(t *testing.T) {
	st := newFakeOrderStore()
	existing := types.Order{ID: "o1", UserID: "acme", OrderNumber: "SO-1"}
	existing.Hash = repository.OrderHash(&existing)
	st.rows["acme|o1"] = existing

	parse := func(path string) ([]OrderRecord, error) { return nil, nil }

	res := RunOrders(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 0, int(res.Deleted))
	assert.Contains(t, st.rows, "acme|o1")
}
