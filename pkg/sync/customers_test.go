package sync

import (
	"context"
	"testing"

	"github.com/cuemby/syncd/pkg/events"
	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomerStore struct {
	rows   map[string]types.Customer // key: userID|profile
	pruned []string
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{rows: map[string]types.Customer{}}
}

func (f *fakeCustomerStore) key(userID, profile string) string { return userID + "|" + profile }

func (f *fakeCustomerStore) GetHash(ctx context.Context, userID, profile string) (string, bool, error) {
	c, ok := f.rows[f.key(userID, profile)]
	if !ok {
		return "", false, nil
	}
	return c.Hash, true, nil
}

func (f *fakeCustomerStore) Upsert(ctx context.Context, c *types.Customer) error {
	c.Hash = repository.CustomerHash(c)
	f.rows[f.key(c.UserID, c.CustomerProfile)] = *c
	return nil
}

func (f *fakeCustomerStore) TouchSync(ctx context.Context, userID, profile string) error {
	if _, ok := f.rows[f.key(userID, profile)]; !ok {
		return assert.AnError
	}
	return nil
}

func (f *fakeCustomerStore) Prune(ctx context.Context, userID string, seenProfiles []string) (int64, error) {
	seen := map[string]bool{}
	for _, p := range seenProfiles {
		seen[p] = true
	}
	var deleted int64
	for k, c := range f.rows {
		if c.UserID != userID {
			continue
		}
		if !seen[c.CustomerProfile] {
			delete(f.rows, k)
			f.pruned = append(f.pruned, c.CustomerProfile)
			deleted++
		}
	}
	return deleted, nil
}

func testDeps() Deps {
	return Deps{
		DownloadSnapshot: func(ctx context.Context, userID *string) (string, error) { return "/tmp/snapshot", nil },
		CleanupFile:      func(path string) {},
		SyncSessionID:    "test-session",
	}
}

func TestRunCustomersInsertsNewAndPrunesMissing(t *testing.T) {
	st := newFakeCustomerStore()
	st.rows["acme|P1"] = types.Customer{UserID: "acme", CustomerProfile: "P1", Name: "Stale Co"}

	parse := func(path string) ([]CustomerRecord, error) {
		return []CustomerRecord{
			{CustomerProfile: "P2", Customer: types.Customer{Name: "New Co", City: "Milan"}},
		}, nil
	}

	res := RunCustomers(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, int(res.Deleted))
	assert.Contains(t, st.rows, "acme|P2")
	assert.NotContains(t, st.rows, "acme|P1")
}

func TestRunCustomersSkipsPruneOnEmptySnapshot(t *testing.T) {
	st := newFakeCustomerStore()
	st.rows["acme|P1"] = types.Customer{UserID: "acme", CustomerProfile: "P1", Name: "Existing Co"}

	parse := func(path string) ([]CustomerRecord, error) { return nil, nil }

	res := RunCustomers(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 0, int(res.Deleted))
	assert.Empty(t, st.pruned)
	assert.Contains(t, st.rows, "acme|P1")
}

func TestRunCustomersSkipsUnchangedRecord(t *testing.T) {
	st := newFakeCustomerStore()
	existing := types.Customer{UserID: "acme", CustomerProfile: "P1", Name: "Same Co"}
	existing.Hash = repository.CustomerHash(&existing)
	st.rows["acme|P1"] = existing

	parse := func(path string) ([]CustomerRecord, error) {
		return []CustomerRecord{{CustomerProfile: "P1", Customer: types.Customer{Name: "Same Co"}}}, nil
	}

	res := RunCustomers(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Inserted)
}

func TestRunCustomersUpdatesChangedRecord(t *testing.T) {
	st := newFakeCustomerStore()
	existing := types.Customer{UserID: "acme", CustomerProfile: "P1", Name: "Old Name"}
	existing.Hash = repository.CustomerHash(&existing)
	st.rows["acme|P1"] = existing

	parse := func(path string) ([]CustomerRecord, error) {
		return []CustomerRecord{{CustomerProfile: "P1", Customer: types.Customer{Name: "New Name"}}}, nil
	}

	res := RunCustomers(context.Background(), testDeps(), st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "New Name", st.rows["acme|P1"].Name)
}

func TestRunCustomersStopsAtCheckpoint(t *testing.T) {
	st := newFakeCustomerStore()
	parse := func(path string) ([]CustomerRecord, error) {
		return []CustomerRecord{{CustomerProfile: "P1"}}, nil
	}
	alreadyStopped := func() bool { return true }

	res := RunCustomers(context.Background(), testDeps(), st, parse, "acme", nil, alreadyStopped)

	require.False(t, res.Success)
	assert.Equal(t, ErrStopped, res.ErrorKind)
}

func TestRunCustomersSurfacesDownloadError(t *testing.T) {
	st := newFakeCustomerStore()
	deps := testDeps()
	deps.DownloadSnapshot = func(ctx context.Context, userID *string) (string, error) { return "", assert.AnError }
	parse := func(path string) ([]CustomerRecord, error) { return nil, nil }

	res := RunCustomers(context.Background(), deps, st, parse, "acme", nil, nil)

	require.False(t, res.Success)
	assert.Equal(t, ErrNetwork, res.ErrorKind)
}

func TestRunCustomersPublishesInsertAndPruneEvents(t *testing.T) {
	st := newFakeCustomerStore()
	st.rows["acme|P1"] = types.Customer{UserID: "acme", CustomerProfile: "P1", Name: "Stale Co"}

	parse := func(path string) ([]CustomerRecord, error) {
		return []CustomerRecord{
			{CustomerProfile: "P2", Customer: types.Customer{Name: "New Co"}},
		}, nil
	}

	var published []*events.Event
	deps := testDeps()
	deps.Publish = func(evt *events.Event) { published = append(published, evt) }

	res := RunCustomers(context.Background(), deps, st, parse, "acme", nil, nil)

	require.True(t, res.Success)
	require.Len(t, published, 2)
	assert.Equal(t, events.EventCustomerCreated, published[0].Type)
	assert.Equal(t, events.EventCustomerDeleted, published[1].Type)
}
