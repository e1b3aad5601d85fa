package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	syncpkg "github.com/cuemby/syncd/pkg/sync"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingRunner(started, release chan struct{}) PipelineRunner {
	return func(ctx context.Context, userID string, progress syncpkg.ProgressFunc, shouldStop syncpkg.StopFunc) *syncpkg.Result {
		close(started)
		<-release
		return &syncpkg.Result{Success: true}
	}
}

func TestRunManualFullSyncRejectsWhileTokenHeld(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	s := NewScheduler(Config{
		Runners: map[types.SyncKind]PipelineRunner{
			types.SyncCustomers: blockingRunner(started, release),
		},
	})

	go func() {
		_, _ = s.RunManualFullSync(context.Background(), types.SyncCustomers, "acme")
	}()

	<-started

	_, err := s.RunManualFullSync(context.Background(), types.SyncCustomers, "acme")
	require.Error(t, err)

	close(release)
}

func TestRunManualFullSyncDoesNotBlockOtherTenant(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var otherRan atomic.Bool

	s := NewScheduler(Config{
		Runners: map[types.SyncKind]PipelineRunner{
			types.SyncCustomers: func(ctx context.Context, userID string, progress syncpkg.ProgressFunc, shouldStop syncpkg.StopFunc) *syncpkg.Result {
				if userID == "acme" {
					close(started)
					<-release
				} else {
					otherRan.Store(true)
				}
				return &syncpkg.Result{Success: true}
			},
		},
	})

	go func() {
		_, _ = s.RunManualFullSync(context.Background(), types.SyncCustomers, "acme")
	}()
	<-started

	_, err := s.RunManualFullSync(context.Background(), types.SyncCustomers, "other-tenant")
	require.NoError(t, err)
	assert.True(t, otherRan.Load())

	close(release)
}

func TestRunManualFullSyncReturnsRunnerResult(t *testing.T) {
	s := NewScheduler(Config{
		Runners: map[types.SyncKind]PipelineRunner{
			types.SyncOrders: func(ctx context.Context, userID string, progress syncpkg.ProgressFunc, shouldStop syncpkg.StopFunc) *syncpkg.Result {
				return &syncpkg.Result{Success: true, Inserted: 3}
			},
		},
	})

	res, err := s.RunManualFullSync(context.Background(), types.SyncOrders, "acme")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Inserted)
}

func TestRunManualFullSyncUnregisteredKindSucceedsAsNoop(t *testing.T) {
	s := NewScheduler(Config{Runners: map[types.SyncKind]PipelineRunner{}})

	res, err := s.RunManualFullSync(context.Background(), types.SyncDDT, "acme")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTokenReleasedAfterRunAllowsRetry(t *testing.T) {
	calls := 0
	s := NewScheduler(Config{
		Runners: map[types.SyncKind]PipelineRunner{
			types.SyncInvoices: func(ctx context.Context, userID string, progress syncpkg.ProgressFunc, shouldStop syncpkg.StopFunc) *syncpkg.Result {
				calls++
				return &syncpkg.Result{Success: true}
			},
		},
	})

	_, err := s.RunManualFullSync(context.Background(), types.SyncInvoices, "acme")
	require.NoError(t, err)
	_, err = s.RunManualFullSync(context.Background(), types.SyncInvoices, "acme")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestTokenKeyStringDistinguishesSharedFromTenant(t *testing.T) {
	shared := tokenKey{Kind: types.SyncProducts}
	tenant := tokenKey{Kind: types.SyncOrders, UserID: "acme"}

	assert.Equal(t, "products", shared.String())
	assert.Equal(t, "orders/acme", tenant.String())
}

func TestRunTokenTryAcquireIsExclusive(t *testing.T) {
	tok := &runToken{}

	ctx1, ok1 := tok.tryAcquire(context.Background())
	require.True(t, ok1)
	require.NotNil(t, ctx1)

	_, ok2 := tok.tryAcquire(context.Background())
	assert.False(t, ok2)

	tok.release()
	_, ok3 := tok.tryAcquire(context.Background())
	assert.True(t, ok3)
}

func TestRunTokenStopCancelsHeldContext(t *testing.T) {
	tok := &runToken{}
	ctx, ok := tok.tryAcquire(context.Background())
	require.True(t, ok)

	tok.stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected context to be cancelled")
	}
}

func TestDiffUserTimersInstallsNewlyWhitelistedUser(t *testing.T) {
	installed := map[tokenKey]bool{}
	whitelisted := map[string]bool{"acme": true}

	toInstall, toRemove := diffUserTimers(installed, whitelisted)

	assert.Empty(t, toRemove)
	wantKinds := map[types.SyncKind]bool{}
	for _, key := range toInstall {
		assert.Equal(t, "acme", key.UserID)
		wantKinds[key.Kind] = true
	}
	for _, kind := range types.AllSyncKinds {
		if kind.PerTenant() {
			assert.True(t, wantKinds[kind], "expected a timer for per-tenant kind %s", kind)
		} else {
			assert.False(t, wantKinds[kind], "shared kind %s should not get a per-user timer", kind)
		}
	}
}

func TestDiffUserTimersRemovesDeWhitelistedUser(t *testing.T) {
	installed := map[tokenKey]bool{
		{Kind: types.SyncCustomers, UserID: "acme"}: true,
		{Kind: types.SyncOrders, UserID: "acme"}:    true,
		{Kind: types.SyncProducts}:                  true, // shared kind, no userID
	}
	whitelisted := map[string]bool{}

	toInstall, toRemove := diffUserTimers(installed, whitelisted)

	assert.Empty(t, toInstall)
	require.Len(t, toRemove, 2)
	for _, key := range toRemove {
		assert.Equal(t, "acme", key.UserID)
	}
}

func TestDiffUserTimersLeavesUnchangedUserAlone(t *testing.T) {
	installed := map[tokenKey]bool{}
	for _, kind := range types.AllSyncKinds {
		if kind.PerTenant() {
			installed[tokenKey{Kind: kind, UserID: "acme"}] = true
		}
	}
	whitelisted := map[string]bool{"acme": true}

	toInstall, toRemove := diffUserTimers(installed, whitelisted)

	assert.Empty(t, toInstall)
	assert.Empty(t, toRemove)
}

func TestInstallAndRemoveTimerUpdatesSchedulerState(t *testing.T) {
	s := NewScheduler(Config{Runners: map[types.SyncKind]PipelineRunner{}})
	key := tokenKey{Kind: types.SyncCustomers, UserID: "acme"}

	s.installTimer(key, 5)
	s.mu.Lock()
	_, tickerInstalled := s.tickers[key]
	s.mu.Unlock()
	require.True(t, tickerInstalled)

	s.removeTimer(key)
	s.mu.Lock()
	_, tickerStillInstalled := s.tickers[key]
	_, tokenStillInstalled := s.tokens[key]
	s.mu.Unlock()
	assert.False(t, tickerStillInstalled)
	assert.False(t, tokenStillInstalled)
}
