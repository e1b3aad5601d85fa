package scheduler

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/cuemby/syncd/pkg/log"
	"github.com/cuemby/syncd/pkg/metrics"
	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/store"
	syncpkg "github.com/cuemby/syncd/pkg/sync"
	"github.com/cuemby/syncd/pkg/types"
	"github.com/rs/zerolog"
)

// PipelineRunner runs one full pass of a sync kind for a tenant (empty
// userID for the two shared kinds, products and prices). It is the
// scheduler's only dependency on pkg/sync — a closure built by the
// caller that already carries the right Store adapter, parser, and
// download function bound in.
type PipelineRunner func(ctx context.Context, userID string, progress syncpkg.ProgressFunc, shouldStop syncpkg.StopFunc) *syncpkg.Result

// tokenKey identifies one independently-scheduled, independently
// serialized resource: a sync kind for a specific tenant, or a shared
// kind with an empty userID.
type tokenKey struct {
	Kind   types.SyncKind
	UserID string
}

func (k tokenKey) String() string {
	if k.UserID == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + "/" + k.UserID
}

// runToken enforces the "strict mutual exclusion, reject don't queue"
// rule within one (syncKind, userID) pair: a second attempt to acquire
// an already-held token fails immediately rather than waiting.
type runToken struct {
	mu     stdsync.Mutex
	held   bool
	cancel context.CancelFunc
}

func (t *runToken) tryAcquire(parent context.Context) (context.Context, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.held {
		return nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	t.held = true
	t.cancel = cancel
	return ctx, true
}

func (t *runToken) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held = false
	t.cancel = nil
}

func (t *runToken) stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Config is everything Scheduler needs to install and run timers.
type Config struct {
	Store   *store.Store
	Runners map[types.SyncKind]PipelineRunner
}

// Scheduler owns one goroutine-driven timer and one serialization token
// per installed (SyncKind, userID|"") pair. Every tick re-reads the
// kind's enabled flag from system.sync_settings, and UpdateInterval
// rearms the affected tickers at once, so either change made through
// pkg/admin takes effect without a restart. A second, coarser ticker re-reads agents.users and
// installs/removes per-tenant timers as the whitelist changes, so a
// user whitelisted or de-whitelisted after boot is picked up without a
// process restart.
type Scheduler struct {
	store   *store.Store
	runners map[types.SyncKind]PipelineRunner
	logger  zerolog.Logger

	mu      stdsync.Mutex
	tokens  map[tokenKey]*runToken
	tickers map[tokenKey]*time.Ticker
	done    map[tokenKey]chan struct{}
	wg      stdsync.WaitGroup

	refreshTicker *time.Ticker
	refreshDone   chan struct{}
}

// NewScheduler builds a Scheduler. Call Start to seed default settings
// and install one timer per known (kind, tenant) pair.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{
		store:   cfg.Store,
		runners: cfg.Runners,
		logger:  log.WithComponent("scheduler"),
		tokens:  make(map[tokenKey]*runToken),
		tickers: make(map[tokenKey]*time.Ticker),
		done:    make(map[tokenKey]chan struct{}),
	}
}

// Start seeds default sync settings (first boot only), then installs a
// timer for every shared kind and, for every per-tenant kind, one timer
// per whitelisted user.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := repository.SeedDefaultSettings(ctx, s.store); err != nil {
		return fmt.Errorf("seed default sync settings: %w", err)
	}

	settings, err := repository.GetAllSettings(ctx, s.store)
	if err != nil {
		return fmt.Errorf("load sync settings: %w", err)
	}

	userIDs, err := repository.ListWhitelistedUserIDs(ctx, s.store)
	if err != nil {
		return fmt.Errorf("list whitelisted users: %w", err)
	}

	coarsest := 0
	for _, kind := range types.AllSyncKinds {
		setting := settings[kind]
		interval := setting.IntervalMinutes
		if interval <= 0 {
			interval = repository.DefaultIntervalMinutes
		}

		if !kind.PerTenant() {
			s.installTimer(tokenKey{Kind: kind}, interval)
			continue
		}
		for _, userID := range userIDs {
			s.installTimer(tokenKey{Kind: kind, UserID: userID}, interval)
		}
		if interval > coarsest {
			coarsest = interval
		}
	}
	if coarsest == 0 {
		coarsest = repository.DefaultIntervalMinutes
	}
	s.startUserRefreshLoop(coarsest)

	s.logger.Info().Int("timers", len(s.tickers)).Msg("scheduler started")
	return nil
}

// startUserRefreshLoop runs refreshUsers once per intervalMinutes — the
// coarsest (longest) interval among the per-tenant kinds at boot, per
// spec: "the scheduler refreshes the user list once per interval tick
// at the coarsest cadence." UpdateInterval does not rearm this ticker;
// it keeps the period computed at boot.
func (s *Scheduler) startUserRefreshLoop(intervalMinutes int) {
	s.refreshTicker = time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
	s.refreshDone = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.refreshTicker.C:
				s.refreshUsers(context.Background())
			case <-s.refreshDone:
				return
			}
		}
	}()
}

// refreshUsers re-reads the whitelisted user set and installs a timer
// for every per-tenant kind for a newly whitelisted user, and tears
// down timers for users no longer whitelisted.
func (s *Scheduler) refreshUsers(ctx context.Context) {
	userIDs, err := repository.ListWhitelistedUserIDs(ctx, s.store)
	if err != nil {
		s.logger.Error().Err(err).Msg("refresh whitelisted users failed")
		return
	}
	whitelisted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		whitelisted[id] = true
	}

	settings, err := repository.GetAllSettings(ctx, s.store)
	if err != nil {
		s.logger.Error().Err(err).Msg("load sync settings for user refresh failed")
		return
	}

	s.mu.Lock()
	installed := make(map[tokenKey]bool, len(s.tickers))
	for key := range s.tickers {
		installed[key] = true
	}
	s.mu.Unlock()

	toInstall, toRemove := diffUserTimers(installed, whitelisted)

	for _, key := range toInstall {
		setting := settings[key.Kind]
		interval := setting.IntervalMinutes
		if interval <= 0 {
			interval = repository.DefaultIntervalMinutes
		}
		s.installTimer(key, interval)
		s.logger.Info().Str("kind", string(key.Kind)).Str("user_id", key.UserID).Msg("installed timer for newly whitelisted user")
	}
	for _, key := range toRemove {
		s.removeTimer(key)
		s.logger.Info().Str("kind", string(key.Kind)).Str("user_id", key.UserID).Msg("removed timer for de-whitelisted user")
	}
}

// diffUserTimers compares the currently installed per-tenant timers
// against the current whitelist and reports which (kind, userID) timers
// need installing (a per-tenant kind for a newly whitelisted user) and
// which need removing (an installed user no longer whitelisted). Pure
// and store-free so the whitelist-change reaction can be tested without
// a database.
func diffUserTimers(installed map[tokenKey]bool, whitelisted map[string]bool) (toInstall, toRemove []tokenKey) {
	for _, kind := range types.AllSyncKinds {
		if !kind.PerTenant() {
			continue
		}
		for userID := range whitelisted {
			key := tokenKey{Kind: kind, UserID: userID}
			if !installed[key] {
				toInstall = append(toInstall, key)
			}
		}
	}
	for key := range installed {
		if key.UserID != "" && !whitelisted[key.UserID] {
			toRemove = append(toRemove, key)
		}
	}
	return toInstall, toRemove
}

// removeTimer tears down an installed (kind, userID) timer: stops its
// ticker, signals its run loop to exit, and cancels any in-flight run.
func (s *Scheduler) removeTimer(key tokenKey) {
	s.mu.Lock()
	ticker, ok := s.tickers[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	done := s.done[key]
	tok := s.tokens[key]
	delete(s.tickers, key)
	delete(s.done, key)
	delete(s.tokens, key)
	s.mu.Unlock()

	ticker.Stop()
	close(done)
	if tok != nil {
		tok.stop()
	}
}

// Stop cancels every in-flight run, stops every ticker (including the
// user-refresh ticker), and waits for all timer goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for key, done := range s.done {
		close(done)
		if t, ok := s.tickers[key]; ok {
			t.Stop()
		}
	}
	for _, tok := range s.tokens {
		tok.stop()
	}
	refreshTicker := s.refreshTicker
	refreshDone := s.refreshDone
	s.mu.Unlock()

	if refreshTicker != nil {
		refreshTicker.Stop()
	}
	if refreshDone != nil {
		close(refreshDone)
	}

	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) installTimer(key tokenKey, intervalMinutes int) {
	s.mu.Lock()
	if _, exists := s.tickers[key]; exists {
		s.mu.Unlock()
		return
	}
	ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
	done := make(chan struct{})
	s.tickers[key] = ticker
	s.done[key] = done
	s.tokens[key] = &runToken{}
	s.mu.Unlock()

	metrics.ActiveTimers.Inc()
	s.wg.Add(1)
	go s.runLoop(key, ticker, done)
}

func (s *Scheduler) runLoop(key tokenKey, ticker *time.Ticker, done chan struct{}) {
	defer s.wg.Done()
	defer metrics.ActiveTimers.Dec()

	for {
		select {
		case <-ticker.C:
			s.tick(key)
		case <-done:
			return
		}
	}
}

// tick re-reads the setting for key.Kind and, if enabled, attempts a
// scheduled run. A held token (a manual or forced run already in
// flight, or the previous tick still running) is skipped, not queued.
func (s *Scheduler) tick(key tokenKey) {
	ctx := context.Background()
	setting, found, err := repository.GetSetting(ctx, s.store, key.Kind)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(key.Kind)).Msg("read sync setting failed")
		return
	}
	if !found || !setting.Enabled {
		return
	}

	s.runGuarded(ctx, key, "scheduled")
}

// RunManualFullSync runs one pass of kind immediately, bypassing the
// interval gate but still respecting the per-resource token (spec:
// "bypasses the interval gate but still respects the token").
func (s *Scheduler) RunManualFullSync(ctx context.Context, kind types.SyncKind, userID string) (*syncpkg.Result, error) {
	key := tokenKey{Kind: kind, UserID: userID}
	res, ran := s.runGuarded(ctx, key, "manual")
	if !ran {
		return nil, fmt.Errorf("sync %s already running", key)
	}
	return res, nil
}

// RunForcedSync clears the target data for kinds that define a forced
// reset (products: hard delete, repopulated by the next upsert; prices:
// null every unitPrice) before running a full sync. It is an
// administrative operation; the admin-role check is the caller's
// responsibility (pkg/admin), not the scheduler's.
func (s *Scheduler) RunForcedSync(ctx context.Context, kind types.SyncKind, userID string) (*syncpkg.Result, error) {
	key := tokenKey{Kind: kind, UserID: userID}

	s.mu.Lock()
	tok, ok := s.tokens[key]
	s.mu.Unlock()
	if !ok {
		tok = &runToken{}
		s.mu.Lock()
		s.tokens[key] = tok
		s.mu.Unlock()
	}

	runCtx, acquired := tok.tryAcquire(ctx)
	if !acquired {
		return nil, fmt.Errorf("sync %s already running", key)
	}
	defer tok.release()

	switch kind {
	case types.SyncProducts:
		if err := repository.ClearAllProducts(runCtx, s.store); err != nil {
			return nil, fmt.Errorf("clear products before forced sync: %w", err)
		}
	case types.SyncPrices:
		if err := repository.ResetAllPrices(runCtx, s.store); err != nil {
			return nil, fmt.Errorf("reset prices before forced sync: %w", err)
		}
	}

	runner, ok := s.runners[kind]
	if !ok {
		return nil, fmt.Errorf("no pipeline registered for %s", kind)
	}

	timer := metrics.NewTimer()
	res := runner(runCtx, userID, nil, func() bool { return runCtx.Err() != nil })
	timer.ObserveDurationVec(metrics.SyncRunDuration, string(kind))
	s.recordOutcome(kind, "forced", res)
	return res, nil
}

// runGuarded attempts the token for key non-blockingly; if acquired it
// runs the pipeline and returns (result, true), else (nil, false).
func (s *Scheduler) runGuarded(ctx context.Context, key tokenKey, trigger string) (*syncpkg.Result, bool) {
	s.mu.Lock()
	tok, ok := s.tokens[key]
	if !ok {
		tok = &runToken{}
		s.tokens[key] = tok
	}
	s.mu.Unlock()

	runCtx, acquired := tok.tryAcquire(ctx)
	if !acquired {
		metrics.SyncRunsTotal.WithLabelValues(string(key.Kind), "rejected").Inc()
		return nil, false
	}
	defer tok.release()

	runner, ok := s.runners[key.Kind]
	if !ok {
		s.logger.Warn().Str("kind", string(key.Kind)).Msg("no pipeline registered")
		return nil, true
	}

	timer := metrics.NewTimer()
	res := runner(runCtx, key.UserID, nil, func() bool { return runCtx.Err() != nil })
	timer.ObserveDurationVec(metrics.SyncRunDuration, string(key.Kind))
	s.recordOutcome(key.Kind, trigger, res)
	return res, true
}

func (s *Scheduler) recordOutcome(kind types.SyncKind, trigger string, res *syncpkg.Result) {
	outcome := "error"
	if res != nil && res.Success {
		outcome = "success"
	} else if res != nil && res.ErrorKind == syncpkg.ErrStopped {
		outcome = "stopped"
	}
	metrics.SyncRunsTotal.WithLabelValues(string(kind), outcome).Inc()

	if res == nil {
		return
	}
	metrics.RecordsProcessedTotal.WithLabelValues(string(kind), "inserted").Add(float64(res.Inserted))
	metrics.RecordsProcessedTotal.WithLabelValues(string(kind), "updated").Add(float64(res.Updated))
	metrics.RecordsProcessedTotal.WithLabelValues(string(kind), "skipped").Add(float64(res.Skipped))
	metrics.RecordsProcessedTotal.WithLabelValues(string(kind), "deleted").Add(float64(res.Deleted))

	s.logger.Info().
		Str("kind", string(kind)).
		Str("trigger", trigger).
		Bool("success", res.Success).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("deleted", res.Deleted).
		Int64("duration_ms", res.DurationMs).
		Msg("sync run finished")
}

// UpdateInterval persists the new interval for kind and rearms every
// already-installed timer for kind (one per tenant for per-tenant
// kinds) to the new period via Ticker.Reset, per spec: "the scheduler
// re-reads on the next tick and rearms its timer with the new period."
func (s *Scheduler) UpdateInterval(ctx context.Context, kind types.SyncKind, minutes int) error {
	if err := repository.UpdateInterval(ctx, s.store, kind, minutes); err != nil {
		return err
	}

	period := time.Duration(minutes) * time.Minute
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, ticker := range s.tickers {
		if key.Kind == kind {
			ticker.Reset(period)
		}
	}
	return nil
}

// SetEnabled flips a sync kind's enabled flag; the next tick observes
// it via tick's re-read of the setting.
func (s *Scheduler) SetEnabled(ctx context.Context, kind types.SyncKind, enabled bool) error {
	return repository.SetEnabled(ctx, s.store, kind, enabled)
}
