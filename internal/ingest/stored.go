package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lox/surfcast/internal/models"
	"github.com/lox/surfcast/internal/store"
)

const (
	StoredProviderName = "stored-provider"
	// MatchTolerance is the per-axis coordinate tolerance in degrees.
	MatchTolerance     = 0.5
)

// StoredPayload is the document shape kept in the provider payload table.
type StoredPayload struct {
	Days []StoredDay `json:"days"`
}

type StoredDay struct {
	Date           string   `json:"date"`
	WaveHeightMin  *float64 `json:"waveHeightMin"`
	WaveHeightMax  *float64 `json:"waveHeightMax"`
	Rating         *string  `json:"rating,omitempty"`
	WindDirection  *string  `json:"windDirection,omitempty"`
	SwellPeriodSec *float64 `json:"swellPeriodSec,omitempty"`
}

// ParseStoredPayload decodes and sanity-checks a stored provider document.
func ParseStoredPayload(data []byte) (*StoredPayload, error) {
	var p StoredPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode stored payload: %w", err)
	}
	for i, d := range p.Days {
		if _, err := models.ParseDay(d.Date); err != nil {
			return nil, fmt.Errorf("day %d: bad date %q", i, d.Date)
		}
	}
	return &p, nil
}

// StoredProvider serves previously ingested marine-model data matched by
// coordinate proximity.
type StoredProvider struct {
	store     *store.Store
	tolerance float64
}

func NewStoredProvider(st *store.Store) *StoredProvider {
	return &StoredProvider{store: st, tolerance: MatchTolerance}
}

func (p *StoredProvider) Name() string {
	return StoredProviderName
}

func (p *StoredProvider) Fetch(ctx context.Context, loc models.Location) ([]models.Report, error) {
	payload, err := p.store.FindProviderPayloadNear(ctx, loc.Latitude, loc.Longitude, p.tolerance)
	if err != nil {
		return nil, &ProviderError{Provider: StoredProviderName, Op: "lookup", Err: err}
	}
	if payload == nil {
		return nil, ErrLocationUnmatched
	}

	doc, err := ParseStoredPayload(payload.Payload)
	if err != nil {
		return nil, &ProviderError{Provider: StoredProviderName, Op: "decode", Err: err}
	}

	reports := make([]models.Report, 0, len(doc.Days))
	for _, d := range doc.Days {
		date, _ := models.ParseDay(d.Date)
		r := models.Report{Date: date}
		if d.WaveHeightMin != nil {
			r.HeightMinFt = sql.NullFloat64{Float64: *d.WaveHeightMin, Valid: true}
		}
		if d.WaveHeightMax != nil {
			r.HeightMaxFt = sql.NullFloat64{Float64: *d.WaveHeightMax, Valid: true}
		}
		if d.Rating != nil {
			r.Rating = sql.NullString{String: *d.Rating, Valid: true}
		}
		if d.WindDirection != nil {
			r.WindDirection = sql.NullString{String: *d.WindDirection, Valid: true}
		}
		if d.SwellPeriodSec != nil {
			r.PeriodSec = sql.NullFloat64{Float64: *d.SwellPeriodSec, Valid: true}
		}
		reports = append(reports, r)
	}

	if len(reports) == 0 {
		return nil, ErrProviderEmpty
	}
	return reports, nil
}
