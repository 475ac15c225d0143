package ingest

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lox/surfcast/internal/models"
	"github.com/lox/surfcast/internal/store"
)

var baseDate = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func dayN(i int) time.Time { return baseDate.AddDate(0, 0, i) }

var (
	regional    = models.Location{ID: "trestles", Name: "Trestles", Latitude: 33.382, Longitude: -117.588}
	nonRegional = models.Location{ID: "pipeline", Name: "Pipeline", Latitude: 21.665, Longitude: -158.053}
)

type fakeProvider struct {
	name    string
	reports []models.Report
	err     error
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, loc models.Location) ([]models.Report, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.reports, f.err
}

func nullF(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func nullS(v string) sql.NullString { return sql.NullString{String: v, Valid: true} }

// spotterReports returns rated feet-band reports for the given day offsets.
func spotterReports(offsets ...int) []models.Report {
	reports := make([]models.Report, 0, len(offsets))
	for _, i := range offsets {
		reports = append(reports, models.Report{
			Date:        dayN(i),
			HeightMinFt: nullF(8),
			HeightMaxFt: nullF(10),
			Rating:      nullS("epic"),
		})
	}
	return reports
}

// globalReports returns n unrated metre reports starting today.
func globalReports(n int) []models.Report {
	reports := make([]models.Report, 0, n)
	for i := 0; i < n; i++ {
		reports = append(reports, models.Report{
			Date:         dayN(i),
			HeightMeters: nullF(1.0),
			PeriodSec:    nullF(9),
			DirectionDeg: nullF(280),
		})
	}
	return reports
}

func storedReports(n int) []models.Report {
	reports := make([]models.Report, 0, n)
	for i := 0; i < n; i++ {
		reports = append(reports, models.Report{
			Date:        dayN(i),
			HeightMinFt: nullF(6),
			HeightMaxFt: nullF(7),
			PeriodSec:   nullF(12),
		})
	}
	return reports
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}
