package api

import (
	"time"

	"github.com/lox/surfcast/internal/models"
	"github.com/lox/surfcast/internal/store"
)

type LocationView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Region     string  `json:"region,omitempty"`
	Difficulty string  `json:"difficulty,omitempty"`
}

type ForecastView struct {
	Date            string    `json:"date"`
	WaveHeightMinFt int       `json:"wave_height_min_ft"`
	WaveHeightMaxFt int       `json:"wave_height_max_ft"`
	SwellPeriodSec  *float64  `json:"swell_period_sec,omitempty"`
	WindDirection   string    `json:"wind_direction,omitempty"`
	Rating          string    `json:"rating"`
	Source          string    `json:"source"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
}

type ForecastResponse struct {
	Location      LocationView   `json:"location"`
	Forecasts     []ForecastView `json:"forecasts"`
	LastUpdatedAt *time.Time     `json:"last_updated_at,omitempty"`
	Stale         bool           `json:"stale"`
}

type RefreshRunView struct {
	CycleID        string     `json:"cycle_id"`
	LocationID     string     `json:"location_id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Source         string     `json:"source,omitempty"`
	RecordsFetched int64      `json:"records_fetched"`
	RecordsStored  int64      `json:"records_stored"`
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
}

// HealthStatus reports database reachability and per-location freshness.
type HealthStatus struct {
	Status    string           `json:"status"`
	Locations []LocationHealth `json:"locations"`
	Errors    []string         `json:"errors,omitempty"`
}

type LocationHealth struct {
	LocationID string     `json:"location_id"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	AgeMinutes int        `json:"age_minutes"`
	Stale      bool       `json:"stale"`
}

func newLocationView(loc models.Location) LocationView {
	return LocationView{
		ID:         loc.ID,
		Name:       loc.Name,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Region:     loc.Region.String,
		Difficulty: loc.Difficulty.String,
	}
}

func newForecastView(fc models.DailyForecast) ForecastView {
	v := ForecastView{
		Date:            fc.Date.Format(models.DateLayout),
		WaveHeightMinFt: fc.WaveHeightMinFt,
		WaveHeightMaxFt: fc.WaveHeightMaxFt,
		WindDirection:   fc.WindDirection.String,
		Rating:          string(fc.Rating),
		Source:          string(fc.Source),
		LastUpdatedAt:   fc.LastUpdatedAt,
	}
	if fc.SwellPeriodSec.Valid {
		p := fc.SwellPeriodSec.Float64
		v.SwellPeriodSec = &p
	}
	return v
}

func newRefreshRunView(r store.RefreshRun) RefreshRunView {
	v := RefreshRunView{
		CycleID:        r.CycleID,
		LocationID:     r.LocationID,
		StartedAt:      r.StartedAt,
		Source:         r.Source.String,
		RecordsFetched: r.RecordsFetched.Int64,
		RecordsStored:  r.RecordsStored.Int64,
		Success:        r.Success,
		Error:          r.ErrorMessage.String,
	}
	if r.FinishedAt.Valid {
		t := r.FinishedAt.Time
		v.FinishedAt = &t
	}
	return v
}
