package admin

import (
	"context"
	"testing"

	"github.com/cuemby/syncd/pkg/scheduler"
	"github.com/cuemby/syncd/pkg/sync"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunManualFullSyncRejectsMissingUserIDForPerTenantKind(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.Config{})
	svc := New(sched, nil)

	_, err := svc.RunManualFullSync(context.Background(), types.SyncOrders, "")
	require.Error(t, err)
}

func TestRunManualFullSyncAllowsEmptyUserIDForSharedKind(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.Config{
		Runners: map[types.SyncKind]scheduler.PipelineRunner{
			types.SyncProducts: func(ctx context.Context, userID string, progress sync.ProgressFunc, shouldStop sync.StopFunc) *sync.Result {
				return &sync.Result{Success: true}
			},
		},
	})
	svc := New(sched, nil)

	res, err := svc.RunManualFullSync(context.Background(), types.SyncProducts, "")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRunForcedSyncRejectsMissingUserIDForPerTenantKind(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.Config{})
	svc := New(sched, nil)

	_, err := svc.RunForcedSync(context.Background(), types.SyncInvoices, "")
	require.Error(t, err)
}

func TestUpdateIntervalRejectsNonPositive(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.Config{})
	svc := New(sched, nil)

	err := svc.UpdateInterval(context.Background(), types.SyncCustomers, 0)
	require.Error(t, err)

	err = svc.UpdateInterval(context.Background(), types.SyncCustomers, -5)
	require.Error(t, err)
}
