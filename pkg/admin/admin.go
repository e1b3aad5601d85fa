// Package admin is the thin façade a caller (cmd/syncd, or the
// out-of-scope REST surface) uses to drive the scheduler and inspect or
// change sync settings. It performs no authorization of its own — the
// admin-role check stays the caller's responsibility — it only exposes
// the seven operations scheduling is allowed to do.
package admin

import (
	"context"
	"fmt"

	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/scheduler"
	"github.com/cuemby/syncd/pkg/store"
	"github.com/cuemby/syncd/pkg/sync"
	"github.com/cuemby/syncd/pkg/types"
)

// Service wraps a running *scheduler.Scheduler and the store its sync
// settings live in.
type Service struct {
	scheduler *scheduler.Scheduler
	store     *store.Store
}

// New builds a Service. The scheduler must already be constructed (via
// scheduler.NewScheduler); Start/Stop below just forward to it.
func New(sched *scheduler.Scheduler, s *store.Store) *Service {
	return &Service{scheduler: sched, store: s}
}

// StartScheduler installs every configured timer.
func (a *Service) StartScheduler(ctx context.Context) error {
	return a.scheduler.Start(ctx)
}

// StopScheduler cancels every in-flight run and tears down every timer.
func (a *Service) StopScheduler() {
	a.scheduler.Stop()
}

// RunManualFullSync triggers kind immediately for userID (empty for the
// shared kinds, products and prices), bypassing the interval gate but
// still respecting the per-resource token.
func (a *Service) RunManualFullSync(ctx context.Context, kind types.SyncKind, userID string) (*sync.Result, error) {
	if kind.PerTenant() && userID == "" {
		return nil, fmt.Errorf("sync kind %s requires a userID", kind)
	}
	return a.scheduler.RunManualFullSync(ctx, kind, userID)
}

// RunForcedSync triggers kind after clearing its target data (products:
// hard delete; prices: null every unit price), an administrative reset
// distinct from a plain manual run.
func (a *Service) RunForcedSync(ctx context.Context, kind types.SyncKind, userID string) (*sync.Result, error) {
	if kind.PerTenant() && userID == "" {
		return nil, fmt.Errorf("sync kind %s requires a userID", kind)
	}
	return a.scheduler.RunForcedSync(ctx, kind, userID)
}

// GetAllSettings returns the persisted {interval, enabled} tuple for
// every sync kind.
func (a *Service) GetAllSettings(ctx context.Context) (map[types.SyncKind]types.SyncSetting, error) {
	return repository.GetAllSettings(ctx, a.store)
}

// UpdateInterval persists a new polling interval for kind and rearms its
// running timer(s) in place.
func (a *Service) UpdateInterval(ctx context.Context, kind types.SyncKind, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", minutes)
	}
	return a.scheduler.UpdateInterval(ctx, kind, minutes)
}

// SetEnabled flips whether kind runs on its scheduled interval. Manual
// and forced runs are unaffected either way.
func (a *Service) SetEnabled(ctx context.Context, kind types.SyncKind, enabled bool) error {
	return a.scheduler.SetEnabled(ctx, kind, enabled)
}
