package ingest

import (
	"github.com/lox/surfcast/internal/metrics"
	"github.com/lox/surfcast/internal/models"
)

const (
	FlagHeightNegative   = "height_negative"
	FlagHeightUnlikely   = "height_unlikely"
	FlagBandInverted     = "band_inverted"
	FlagPeriodOutOfRange = "period_out_of_range"
	FlagDirectionInvalid = "direction_invalid"
	FlagRatingUnknown    = "rating_unknown"
)

// maxPlausibleFt is above any recorded surf; larger values are data errors.
const maxPlausibleFt = 100

// ValidateReport returns quality flags for suspicious fields in a provider
// report. Flags are informational; normalization still decides what is kept.
func ValidateReport(r models.Report) []string {
	var flags []string

	heights := []float64{}
	if r.HeightMinFt.Valid {
		heights = append(heights, r.HeightMinFt.Float64)
	}
	if r.HeightMaxFt.Valid {
		heights = append(heights, r.HeightMaxFt.Float64)
	}
	if r.HeightMeters.Valid {
		heights = append(heights, r.HeightMeters.Float64*3.28084)
	}
	for _, h := range heights {
		if h < 0 {
			flags = append(flags, FlagHeightNegative)
			break
		}
	}
	for _, h := range heights {
		if h > maxPlausibleFt {
			flags = append(flags, FlagHeightUnlikely)
			break
		}
	}

	if r.HeightMinFt.Valid && r.HeightMaxFt.Valid && r.HeightMinFt.Float64 > r.HeightMaxFt.Float64 {
		flags = append(flags, FlagBandInverted)
	}

	if r.PeriodSec.Valid && (r.PeriodSec.Float64 <= 0 || r.PeriodSec.Float64 > 30) {
		flags = append(flags, FlagPeriodOutOfRange)
	}

	if r.DirectionDeg.Valid && (r.DirectionDeg.Float64 < 0 || r.DirectionDeg.Float64 >= 360) {
		flags = append(flags, FlagDirectionInvalid)
	}

	if r.Rating.Valid {
		if _, ok := models.ParseRating(r.Rating.String); !ok {
			flags = append(flags, FlagRatingUnknown)
		}
	}

	return flags
}

// recordQualityFlags counts flags per provider across a batch of reports.
func recordQualityFlags(provider string, reports []models.Report) int {
	var n int
	for _, r := range reports {
		for _, flag := range ValidateReport(r) {
			metrics.ReportQualityFlags.WithLabelValues(provider, flag).Inc()
			n++
		}
	}
	return n
}
