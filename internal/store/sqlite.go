package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lox/surfcast/internal/metrics"
	"github.com/lox/surfcast/internal/models"
)

const maxWriteRetries = 5

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetClock replaces the time source used to stamp and age forecasts.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) UpsertLocation(ctx context.Context, loc models.Location) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (location_id, name, latitude, longitude, region, difficulty)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			region = excluded.region,
			difficulty = excluded.difficulty
	`, loc.ID, loc.Name, loc.Latitude, loc.Longitude, loc.Region, loc.Difficulty)
	return err
}

// GetLocation returns nil when the location is not in the catalog.
func (s *Store) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT location_id, name, latitude, longitude, region, difficulty
		FROM locations WHERE location_id = ?
	`, id)

	var loc models.Location
	err := row.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Region, &loc.Difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location_id, name, latitude, longitude, region, difficulty
		FROM locations ORDER BY location_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Latitude, &loc.Longitude, &loc.Region, &loc.Difficulty); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// UpsertForecasts writes forecasts for locationID keyed by (location, date).
// Existing rows are overwritten in full and every written row is stamped with
// the current time. Returns the number of rows written.
func (s *Store) UpsertForecasts(ctx context.Context, locationID string, forecasts []models.DailyForecast) (int, error) {
	if len(forecasts) == 0 {
		return 0, nil
	}

	var written int
	err := s.withRetry(ctx, func() error {
		n, err := s.upsertForecastsTx(ctx, locationID, forecasts)
		written = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("upsert forecasts for %s: %w", locationID, err)
	}
	return written, nil
}

func (s *Store) upsertForecastsTx(ctx context.Context, locationID string, forecasts []models.DailyForecast) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_forecasts (location_id, date, wave_height_min_ft, wave_height_max_ft,
			swell_period_sec, wind_direction, rating, source, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id, date) DO UPDATE SET
			wave_height_min_ft = excluded.wave_height_min_ft,
			wave_height_max_ft = excluded.wave_height_max_ft,
			swell_period_sec = excluded.swell_period_sec,
			wind_direction = excluded.wind_direction,
			rating = excluded.rating,
			source = excluded.source,
			last_updated_at = excluded.last_updated_at
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, fc := range forecasts {
		if !fc.Rating.Valid() {
			return 0, fmt.Errorf("forecast %s: invalid rating %q", fc.Date.Format(models.DateLayout), fc.Rating)
		}
		if _, err := stmt.ExecContext(ctx,
			locationID, fc.Date.Format(models.DateLayout), fc.WaveHeightMinFt, fc.WaveHeightMaxFt,
			fc.SwellPeriodSec, fc.WindDirection, string(fc.Rating), string(fc.Source), now,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(forecasts), nil
}

// GetForecasts returns a location's stored forecasts in ascending date order.
func (s *Store) GetForecasts(ctx context.Context, locationID string) ([]models.DailyForecast, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location_id, date, wave_height_min_ft, wave_height_max_ft, swell_period_sec,
		       wind_direction, rating, source, last_updated_at
		FROM daily_forecasts
		WHERE location_id = ?
		ORDER BY date ASC
	`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forecasts []models.DailyForecast
	for rows.Next() {
		var (
			fc     models.DailyForecast
			date   string
			rating string
			source string
		)
		if err := rows.Scan(&fc.LocationID, &date, &fc.WaveHeightMinFt, &fc.WaveHeightMaxFt,
			&fc.SwellPeriodSec, &fc.WindDirection, &rating, &source, &fc.LastUpdatedAt); err != nil {
			return nil, err
		}
		fc.Date, err = time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse forecast date %q: %w", date, err)
		}
		fc.Rating = models.Rating(rating)
		fc.Source = models.Source(source)
		forecasts = append(forecasts, fc)
	}
	return forecasts, rows.Err()
}

// GetLastUpdated returns the most recent last_updated_at across a location's
// forecasts, or nil when it has none.
func (s *Store) GetLastUpdated(ctx context.Context, locationID string) (*time.Time, error) {
	var last time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT last_updated_at FROM daily_forecasts
		WHERE location_id = ?
		ORDER BY last_updated_at DESC
		LIMIT 1
	`, locationID).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last, nil
}

// GetStaleLocations scans the catalog for locations with no forecasts or whose
// newest forecast is older than maxAge. Result order is not significant.
func (s *Store) GetStaleLocations(ctx context.Context, maxAge time.Duration) ([]models.Location, error) {
	locations, err := s.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	now := s.now()
	var stale []models.Location
	for _, loc := range locations {
		last, err := s.GetLastUpdated(ctx, loc.ID)
		if err != nil {
			return nil, fmt.Errorf("last updated for %s: %w", loc.ID, err)
		}
		if IsStale(last, now, maxAge) {
			stale = append(stale, loc)
		}
	}
	return stale, nil
}

// IsStale reports whether data last written at last is older than maxAge at now.
func IsStale(last *time.Time, now time.Time, maxAge time.Duration) bool {
	if last == nil {
		return true
	}
	if maxAge <= 0 {
		return true
	}
	return now.Sub(*last) > maxAge
}

func (s *Store) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxWriteRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			metrics.StoreWriteRetries.Inc()
			log.Warn().Err(err).Msg("store: database busy, retrying")
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}

func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
