package metrics

import (
	"context"
	"time"

	"github.com/cuemby/syncd/pkg/repository"
	"github.com/cuemby/syncd/pkg/store"
)

// Collector periodically samples point-in-time state that isn't
// naturally a counter or histogram: how many tenants are eligible for
// sync, and how many of the six sync kinds are currently enabled.
// Everything else (run duration, records processed) is pushed directly
// by the pipelines that produce it.
type Collector struct {
	store  *store.Store
	stopCh chan struct{}
}

// NewCollector creates a metrics collector bound to s.
func NewCollector(s *store.Store) *Collector {
	return &Collector{
		store:  s,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds, after an immediate
// first sample.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectWhitelistedUsers(ctx)
	c.collectSyncSettings(ctx)
}

func (c *Collector) collectWhitelistedUsers(ctx context.Context) {
	ids, err := repository.ListWhitelistedUserIDs(ctx, c.store)
	if err != nil {
		return
	}
	WhitelistedUsersTotal.Set(float64(len(ids)))
}

func (c *Collector) collectSyncSettings(ctx context.Context) {
	settings, err := repository.GetAllSettings(ctx, c.store)
	if err != nil {
		return
	}
	var enabled int
	for _, s := range settings {
		if s.Enabled {
			enabled++
		}
	}
	SyncSettingsEnabledTotal.Set(float64(enabled))
}
