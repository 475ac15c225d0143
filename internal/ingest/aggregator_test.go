package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/surfcast/internal/models"
)

func newFakes() (spotter, stored, global *fakeProvider) {
	return &fakeProvider{name: SpotterName},
		&fakeProvider{name: StoredProviderName, err: ErrLocationUnmatched},
		&fakeProvider{name: GlobalModelName}
}

func TestFetchForecastFullRegionalCoverage(t *testing.T) {
	spotter, stored, global := newFakes()
	spotter.reports = spotterReports(0, 1, 2, 3, 4, 5, 6)
	global.reports = globalReports(7)

	agg := NewAggregator(spotter, stored, global)
	got := agg.FetchForecast(context.Background(), regional)

	require.Len(t, got, 7)
	for i, fc := range got {
		assert.Equal(t, dayN(i), fc.Date)
		assert.Equal(t, models.SourceSpotter, fc.Source)
		assert.Equal(t, models.RatingEpic, fc.Rating)
		assert.Equal(t, regional.ID, fc.LocationID)
	}
	assert.EqualValues(t, 1, spotter.calls.Load())
	assert.EqualValues(t, 0, global.calls.Load())
	assert.EqualValues(t, 0, stored.calls.Load())
}

func TestFetchForecastPartialRegionalMerge(t *testing.T) {
	spotter, stored, global := newFakes()
	spotter.reports = spotterReports(0, 2)
	global.reports = globalReports(7)

	agg := NewAggregator(spotter, stored, global)
	got := agg.FetchForecast(context.Background(), regional)

	require.Len(t, got, 7)
	for i, fc := range got {
		assert.Equal(t, dayN(i), fc.Date, "sorted ascending without duplicates")
		if i == 0 || i == 2 {
			assert.Equal(t, models.SourceSpotter, fc.Source)
			assert.Equal(t, 8, fc.WaveHeightMinFt)
			assert.Equal(t, 10, fc.WaveHeightMaxFt)
			assert.Equal(t, models.RatingEpic, fc.Rating)
			continue
		}
		assert.Equal(t, models.SourceGlobalModel, fc.Source)
		assert.Equal(t, 2, fc.WaveHeightMinFt)
		assert.Equal(t, 3, fc.WaveHeightMaxFt)
		assert.Equal(t, models.RatingFair, fc.Rating)
	}
	assert.EqualValues(t, 1, global.calls.Load())
	assert.EqualValues(t, 0, stored.calls.Load())
}

func TestFetchForecastCountsDistinctSpotterDates(t *testing.T) {
	spotter, stored, global := newFakes()
	// Seven entries but only six distinct dates.
	spotter.reports = spotterReports(0, 0, 1, 2, 3, 4, 5)
	global.reports = globalReports(7)

	agg := NewAggregator(spotter, stored, global)
	got := agg.FetchForecast(context.Background(), regional)

	require.Len(t, got, 7)
	assert.EqualValues(t, 1, global.calls.Load())
	assert.Equal(t, models.SourceGlobalModel, got[6].Source)
}

func TestFetchForecastSpotterFailureFallsThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport error", err: &ProviderError{Provider: SpotterName, Op: "fetch", Err: errors.New("connection refused")}},
		{name: "empty", err: ErrProviderEmpty},
		{name: "empty without error", err: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spotter, stored, global := newFakes()
			spotter.err = tt.err
			stored.err = nil
			stored.reports = storedReports(5)
			global.reports = globalReports(7)

			agg := NewAggregator(spotter, stored, global)
			got := agg.FetchForecast(context.Background(), regional)

			require.Len(t, got, 5)
			for _, fc := range got {
				assert.Equal(t, models.SourceStoredProvider, fc.Source)
				assert.Equal(t, models.RatingEpic, fc.Rating, "stored days without rating are classified")
			}
			assert.EqualValues(t, 1, stored.calls.Load())
			assert.EqualValues(t, 0, global.calls.Load())
		})
	}
}

func TestFetchForecastNonRegionalFallback(t *testing.T) {
	spotter, stored, global := newFakes()
	spotter.reports = spotterReports(0, 1, 2, 3, 4, 5, 6)
	global.reports = globalReports(7)

	agg := NewAggregator(spotter, stored, global)
	got := agg.FetchForecast(context.Background(), nonRegional)

	require.Len(t, got, 7)
	for _, fc := range got {
		assert.Equal(t, models.SourceGlobalModel, fc.Source)
		assert.True(t, fc.Rating.Valid())
		assert.Equal(t, models.RatingFair, fc.Rating)
		assert.Equal(t, "W", fc.WindDirection.String)
	}
	assert.EqualValues(t, 0, spotter.calls.Load(), "spotter is never called outside its region")
	assert.EqualValues(t, 1, stored.calls.Load())
	assert.EqualValues(t, 1, global.calls.Load())
}

func TestFetchForecastTotalExhaustion(t *testing.T) {
	spotter, stored, global := newFakes()
	spotter.err = errors.New("spotter down")
	global.err = &ProviderError{Provider: GlobalModelName, Op: "fetch", StatusCode: 503, Err: errors.New("unavailable")}

	agg := NewAggregator(spotter, stored, global)

	for _, loc := range []models.Location{regional, nonRegional} {
		got := agg.FetchForecast(context.Background(), loc)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestFetchForecastPanickingProvider(t *testing.T) {
	spotter, stored, global := newFakes()
	spotter.panics = true
	global.reports = globalReports(7)

	agg := NewAggregator(spotter, stored, global)
	got := agg.FetchForecast(context.Background(), regional)

	require.Len(t, got, 7)
	assert.Equal(t, models.SourceGlobalModel, got[0].Source)
}

func TestFetchForecastAdapterTimeout(t *testing.T) {
	spotter, stored, global := newFakes()
	spotter.reports = spotterReports(0, 1, 2, 3, 4, 5, 6)
	spotter.delay = 5 * time.Second
	global.reports = globalReports(7)

	agg := NewAggregator(spotter, stored, global, WithAdapterTimeout(20*time.Millisecond))

	start := time.Now()
	got := agg.FetchForecast(context.Background(), regional)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, got, 7)
	assert.Equal(t, models.SourceGlobalModel, got[0].Source)
}

func TestFetchForecastNilProviders(t *testing.T) {
	global := &fakeProvider{name: GlobalModelName, reports: globalReports(7)}

	agg := NewAggregator(nil, nil, global)
	got := agg.FetchForecast(context.Background(), regional)
	require.Len(t, got, 7)

	empty := NewAggregator(nil, nil, nil)
	assert.Empty(t, empty.FetchForecast(context.Background(), regional))
}

func TestFetchForecastRegionBoundary(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		inRegion bool
	}{
		{name: "south west corner", lat: 32.5, lng: -124.5, inRegion: true},
		{name: "north east corner", lat: 42, lng: -114, inRegion: true},
		{name: "just south", lat: 32.49, lng: -117, inRegion: false},
		{name: "just east", lat: 35, lng: -113.99, inRegion: false},
		{name: "just north", lat: 42.01, lng: -120, inRegion: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spotter, stored, global := newFakes()
			spotter.reports = spotterReports(0, 1, 2, 3, 4, 5, 6)
			global.reports = globalReports(7)

			loc := models.Location{ID: "edge", Latitude: tt.lat, Longitude: tt.lng}
			NewAggregator(spotter, stored, global).FetchForecast(context.Background(), loc)

			if tt.inRegion {
				assert.EqualValues(t, 1, spotter.calls.Load())
			} else {
				assert.EqualValues(t, 0, spotter.calls.Load())
			}
		})
	}
}

func TestMergeByDatePrimaryWins(t *testing.T) {
	primary := []models.DailyForecast{
		{Date: dayN(2), Source: models.SourceSpotter},
		{Date: dayN(0), Source: models.SourceSpotter},
	}
	fallback := []models.DailyForecast{
		{Date: dayN(0), Source: models.SourceGlobalModel},
		{Date: dayN(1), Source: models.SourceGlobalModel},
		{Date: dayN(2), Source: models.SourceGlobalModel},
	}

	got := mergeByDate(primary, fallback)
	require.Len(t, got, 3)
	assert.Equal(t, models.SourceSpotter, got[0].Source)
	assert.Equal(t, models.SourceGlobalModel, got[1].Source)
	assert.Equal(t, models.SourceSpotter, got[2].Source)
}

func TestClassifyErr(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, outcomeEmpty, classifyErr(ctx, ErrProviderEmpty))
	assert.Equal(t, outcomeUnmatched, classifyErr(ctx, ErrLocationUnmatched))
	assert.Equal(t, outcomeTimeout, classifyErr(ctx, context.DeadlineExceeded))
	assert.Equal(t, outcomeFailed, classifyErr(ctx, errors.New("boom")))
	assert.Equal(t, "error", outcomeFailed.String())
}
