package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/surfcast/internal/metrics"
	"github.com/lox/surfcast/internal/models"
	"github.com/lox/surfcast/internal/store"
)

const (
	DefaultMaxAge      = 6 * time.Hour
	DefaultConcurrency = 4
)

// ErrNoForecast is returned when every provider came back empty for a location.
var ErrNoForecast = errors.New("no forecast available")

// Fetcher produces merged forecasts for a location.
type Fetcher interface {
	FetchForecast(ctx context.Context, loc models.Location) []models.DailyForecast
}

// RefreshSummary describes one pass over the stale locations.
type RefreshSummary struct {
	CycleID   string
	Stale     int
	Refreshed int
	Failed    int
}

type Refresher struct {
	store       *store.Store
	fetcher     Fetcher
	maxAge      time.Duration
	concurrency int
	onRefresh   func(locationID string)
}

func NewRefresher(st *store.Store, fetcher Fetcher, maxAge time.Duration, concurrency int) *Refresher {
	if maxAge < 0 {
		maxAge = DefaultMaxAge
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Refresher{
		store:       st,
		fetcher:     fetcher,
		maxAge:      maxAge,
		concurrency: concurrency,
	}
}

// SetOnRefresh registers a callback run after a location's forecasts are stored.
func (r *Refresher) SetOnRefresh(fn func(locationID string)) {
	r.onRefresh = fn
}

func (r *Refresher) MaxAge() time.Duration {
	return r.maxAge
}

// RefreshStale refreshes every stale location. A failing location is logged
// and counted; it never stops the others. Only failing to list stale
// locations is returned as an error.
func (r *Refresher) RefreshStale(ctx context.Context) (RefreshSummary, error) {
	summary := RefreshSummary{CycleID: uuid.NewString()}

	stale, err := r.store.GetStaleLocations(ctx, r.maxAge)
	if err != nil {
		return summary, fmt.Errorf("get stale locations: %w", err)
	}
	summary.Stale = len(stale)
	metrics.StaleLocations.Set(float64(len(stale)))

	if len(stale) == 0 {
		log.Debug().Str("cycle", summary.CycleID).Msg("refresh: nothing stale")
		return summary, nil
	}

	log.Info().Str("cycle", summary.CycleID).Int("stale", len(stale)).Msg("refresh: starting cycle")

	var refreshed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, loc := range stale {
		loc := loc
		g.Go(func() error {
			if _, err := r.RefreshLocation(ctx, summary.CycleID, loc); err != nil {
				failed.Add(1)
				log.Warn().Err(err).Str("location", loc.ID).Msg("refresh: location failed")
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	g.Wait()

	summary.Refreshed = int(refreshed.Load())
	summary.Failed = int(failed.Load())

	log.Info().
		Str("cycle", summary.CycleID).
		Int("refreshed", summary.Refreshed).
		Int("failed", summary.Failed).
		Msg("refresh: cycle complete")
	return summary, nil
}

// RefreshLocation fetches and stores forecasts for one location, recording
// the attempt in the refresh audit table. It returns the stored forecasts.
func (r *Refresher) RefreshLocation(ctx context.Context, cycleID string, loc models.Location) ([]models.DailyForecast, error) {
	if cycleID == "" {
		cycleID = uuid.NewString()
	}

	run, err := r.store.StartRefreshRun(ctx, cycleID, loc.ID)
	if err != nil {
		log.Warn().Err(err).Str("location", loc.ID).Msg("refresh: could not record run start")
	}

	forecasts, err := r.refresh(ctx, loc, run)

	if run != nil {
		run.Success = err == nil
		if err != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		}
		if cerr := r.store.CompleteRefreshRun(ctx, run); cerr != nil {
			log.Warn().Err(cerr).Str("location", loc.ID).Msg("refresh: could not record run result")
		}
	}

	if err != nil {
		metrics.RefreshRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.RefreshRunsTotal.WithLabelValues("success").Inc()

	if r.onRefresh != nil {
		r.onRefresh(loc.ID)
	}
	return forecasts, nil
}

func (r *Refresher) refresh(ctx context.Context, loc models.Location, run *store.RefreshRun) ([]models.DailyForecast, error) {
	forecasts := r.fetcher.FetchForecast(ctx, loc)
	if run != nil {
		run.RecordsFetched = sql.NullInt64{Int64: int64(len(forecasts)), Valid: true}
		if len(forecasts) > 0 {
			run.Source = sql.NullString{String: string(dominantSource(forecasts)), Valid: true}
		}
	}
	if len(forecasts) == 0 {
		return nil, ErrNoForecast
	}

	n, err := r.store.UpsertForecasts(ctx, loc.ID, forecasts)
	if err != nil {
		return nil, err
	}
	if run != nil {
		run.RecordsStored = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	for _, fc := range forecasts {
		metrics.ForecastsUpserted.WithLabelValues(string(fc.Source)).Inc()
	}

	log.Debug().Str("location", loc.ID).Int("days", n).Msg("refresh: stored forecasts")
	return forecasts, nil
}

// dominantSource picks the source contributing the most days.
func dominantSource(fcs []models.DailyForecast) models.Source {
	counts := make(map[models.Source]int)
	var best models.Source
	for _, fc := range fcs {
		counts[fc.Source]++
		if counts[fc.Source] > counts[best] {
			best = fc.Source
		}
	}
	return best
}
