/*
Package admin is a thin façade over pkg/scheduler and the sync-settings
repository, wrapping exactly the seven operations an operator (or the
out-of-scope REST surface) is allowed to perform: start/stop the
scheduler, trigger a manual or forced run, and read/update sync
settings. The shape mirrors the teacher's pkg/api.Server, which wraps a
*manager.Manager the same way — one struct holding the thing being
driven, methods that do no more than validate arguments and forward.

Service performs no authorization. Whether the caller is allowed to call
RunForcedSync or SetEnabled is decided before this package is reached;
Service assumes it already was.

# Usage

	svc := admin.New(sched, store)
	if err := svc.StartScheduler(ctx); err != nil { ... }

	res, err := svc.RunManualFullSync(ctx, types.SyncOrders, "acme")

	settings, err := svc.GetAllSettings(ctx)
	err = svc.UpdateInterval(ctx, types.SyncProducts, 30)
	err = svc.SetEnabled(ctx, types.SyncInvoices, false)

# See Also

  - pkg/scheduler for RunManualFullSync/RunForcedSync/UpdateInterval/SetEnabled
  - pkg/repository for the sync_settings table this reads
*/
package admin
