package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const DefaultRefreshInterval = 30 * time.Minute

// Scheduler runs refresh cycles on a fixed interval. A cycle that is still
// running when the next one is due delays it rather than overlapping.
type Scheduler struct {
	refresher *Refresher
	interval  time.Duration
}

func NewScheduler(refresher *Refresher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
	}
}

// Run starts an immediate cycle and then one every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	if _, err := cron.Every(s.interval).Do(s.runCycle, ctx); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	log.Info().Dur("interval", s.interval).Msg("scheduler: started")
	cron.StartAsync()

	<-ctx.Done()
	cron.Stop()
	log.Info().Msg("scheduler: shutting down")
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.refresher.RefreshStale(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: refresh cycle failed")
	}
}
