package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lox/surfcast/internal/forecast"
	"github.com/lox/surfcast/internal/metrics"
	"github.com/lox/surfcast/internal/models"
)

const (
	DefaultAdapterTimeout = 10 * time.Second
	// fullCoverageDays is how many distinct spotter dates make the fallback unnecessary.
	fullCoverageDays = 7
)

// Provider is one external forecast source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc models.Location) ([]models.Report, error)
}

type outcome int

const (
	outcomeData outcome = iota
	outcomeEmpty
	outcomeUnmatched
	outcomeFailed
	outcomeTimeout
	outcomeSkipped
)

func (o outcome) String() string {
	switch o {
	case outcomeData:
		return "ok"
	case outcomeEmpty:
		return "empty"
	case outcomeUnmatched:
		return "unmatched"
	case outcomeTimeout:
		return "timeout"
	case outcomeSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// stepResult is the result of one waterfall step. forecasts is non-empty
// exactly when outcome is outcomeData.
type stepResult struct {
	outcome   outcome
	forecasts []models.DailyForecast
	err       error
}

func (r stepResult) ok() bool { return r.outcome == outcomeData }

type Aggregator struct {
	spotter Provider
	stored  Provider
	global  Provider
	region  Region
	timeout time.Duration
}

type AggregatorOption func(*Aggregator)

// WithAdapterTimeout bounds every individual provider call.
func WithAdapterTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRegion overrides the spotter coverage box.
func WithRegion(r Region) AggregatorOption {
	return func(a *Aggregator) {
		a.region = r
	}
}

// NewAggregator builds the waterfall. Any provider may be nil, in which case
// its step always comes back empty.
func NewAggregator(spotter, stored, global Provider, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		spotter: spotter,
		stored:  stored,
		global:  global,
		region:  SpotterRegion,
		timeout: DefaultAdapterTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchForecast returns the best available daily forecasts for loc, sorted by
// date with one record per date. Provider failures never surface here; when
// every source comes back empty the result is an empty slice.
func (a *Aggregator) FetchForecast(ctx context.Context, loc models.Location) []models.DailyForecast {
	logger := log.With().Str("location", loc.ID).Logger()

	if a.region.ContainsLocation(loc) {
		spot := a.step(ctx, a.spotter, loc, models.SourceSpotter)
		if spot.ok() {
			if len(spot.forecasts) >= fullCoverageDays {
				return spot.forecasts
			}
			global := a.step(ctx, a.global, loc, models.SourceGlobalModel)
			merged := mergeByDate(spot.forecasts, global.forecasts)
			logger.Debug().
				Int("spotter_days", len(spot.forecasts)).
				Int("merged_days", len(merged)).
				Msg("aggregate: partial spotter coverage merged with global model")
			return merged
		}
	}

	if stored := a.step(ctx, a.stored, loc, models.SourceStoredProvider); stored.ok() {
		return stored.forecasts
	}

	if global := a.step(ctx, a.global, loc, models.SourceGlobalModel); global.ok() {
		return global.forecasts
	}

	logger.Warn().Msg("aggregate: no forecast available from any provider")
	return []models.DailyForecast{}
}

// step runs one provider call under its own deadline and normalizes the result.
func (a *Aggregator) step(ctx context.Context, p Provider, loc models.Location, source models.Source) (res stepResult) {
	if p == nil {
		return stepResult{outcome: outcomeSkipped}
	}

	name := p.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = stepResult{outcome: outcomeFailed, err: fmt.Errorf("%s panicked: %v", name, r)}
		}
		metrics.ProviderLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.ProviderCallsTotal.WithLabelValues(name, res.outcome.String()).Inc()

		event := log.Debug()
		if res.outcome == outcomeFailed || res.outcome == outcomeTimeout {
			event = log.Warn()
		}
		event.Str("location", loc.ID).
			Str("provider", name).
			Str("outcome", res.outcome.String()).
			Int("days", len(res.forecasts)).
			Err(res.err).
			Msg("aggregate: provider step")
	}()

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reports, err := p.Fetch(callCtx, loc)
	if err != nil {
		return stepResult{outcome: classifyErr(callCtx, err), err: err}
	}

	if n := recordQualityFlags(name, reports); n > 0 {
		log.Debug().Str("location", loc.ID).Str("provider", name).Int("flags", n).Msg("aggregate: suspicious report fields")
	}

	forecasts := dedupeByDate(forecast.NormalizeAll(loc.ID, source, reports))
	if len(forecasts) == 0 {
		return stepResult{outcome: outcomeEmpty}
	}
	return stepResult{outcome: outcomeData, forecasts: forecasts}
}

func classifyErr(ctx context.Context, err error) outcome {
	switch {
	case errors.Is(err, ErrProviderEmpty), errors.Is(err, ErrOutOfRegion):
		return outcomeEmpty
	case errors.Is(err, ErrLocationUnmatched):
		return outcomeUnmatched
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return outcomeTimeout
	default:
		return outcomeFailed
	}
}

// dedupeByDate keeps the first record for each date and sorts ascending.
func dedupeByDate(in []models.DailyForecast) []models.DailyForecast {
	seen := make(map[time.Time]bool, len(in))
	out := make([]models.DailyForecast, 0, len(in))
	for _, fc := range in {
		if seen[fc.Date] {
			continue
		}
		seen[fc.Date] = true
		out = append(out, fc)
	}
	sortByDate(out)
	return out
}

// mergeByDate keeps every primary record and adds fallback records only for
// dates the primary does not cover.
func mergeByDate(primary, fallback []models.DailyForecast) []models.DailyForecast {
	seen := make(map[time.Time]bool, len(primary)+len(fallback))
	out := make([]models.DailyForecast, 0, len(primary)+len(fallback))
	for _, fc := range primary {
		seen[fc.Date] = true
		out = append(out, fc)
	}
	for _, fc := range fallback {
		if seen[fc.Date] {
			continue
		}
		seen[fc.Date] = true
		out = append(out, fc)
	}
	sortByDate(out)
	return out
}

func sortByDate(fcs []models.DailyForecast) {
	sort.SliceStable(fcs, func(i, j int) bool {
		return fcs[i].Date.Before(fcs[j].Date)
	})
}
