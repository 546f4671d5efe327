package cache

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

// DefaultJanitorSchedule sweeps expired entries once a minute.
const DefaultJanitorSchedule = "@every 1m"

// Janitor evicts expired entries on a cron schedule.
type Janitor struct {
	cron *cron.Cron
}

// StartJanitor schedules store.Sweep with the given cron spec and starts the scheduler.
func StartJanitor(store *Store, spec string) (*Janitor, error) {
	if spec == "" {
		spec = DefaultJanitorSchedule
	}
	logger := applog.Named("cache-janitor")
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := store.Sweep(); n > 0 {
			logger.Info("evicted expired cache entries", zap.Int("evicted", n), zap.Int("remaining", store.Len()))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule cache janitor %q: %w", spec, err)
	}
	c.Start()
	return &Janitor{cron: c}, nil
}

// Stop halts the schedule and waits for a running sweep, or for ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
