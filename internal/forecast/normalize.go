package forecast

import (
	"database/sql"
	"math"
	"strings"

	"github.com/lox/surfcast/internal/models"
)

// Normalize converts a provider report into a DailyForecast for locationID.
// It returns false when the report carries no date or no usable height.
// LastUpdatedAt is left for the store to stamp.
func Normalize(locationID string, source models.Source, r models.Report) (models.DailyForecast, bool) {
	if r.Date.IsZero() {
		return models.DailyForecast{}, false
	}

	minFt, maxFt, ok := heightBand(r)
	if !ok {
		return models.DailyForecast{}, false
	}

	fc := models.DailyForecast{
		LocationID:      locationID,
		Date:            models.Day(r.Date),
		WaveHeightMinFt: minFt,
		WaveHeightMaxFt: maxFt,
		Source:          source,
	}

	if r.PeriodSec.Valid && r.PeriodSec.Float64 > 0 {
		fc.SwellPeriodSec = r.PeriodSec
	}
	fc.WindDirection = compass(r)

	if rating, ok := models.ParseRating(r.Rating.String); r.Rating.Valid && ok {
		fc.Rating = rating
	} else if fc.SwellPeriodSec.Valid {
		fc.Rating = Classify(float64(fc.WaveHeightMaxFt), fc.SwellPeriodSec.Float64)
	} else {
		fc.Rating = models.RatingFair
	}

	return fc, true
}

// NormalizeAll normalizes every report, dropping the ones Normalize rejects.
func NormalizeAll(locationID string, source models.Source, reports []models.Report) []models.DailyForecast {
	out := make([]models.DailyForecast, 0, len(reports))
	for _, r := range reports {
		if fc, ok := Normalize(locationID, source, r); ok {
			out = append(out, fc)
		}
	}
	return out
}

func heightBand(r models.Report) (int, int, bool) {
	var minFt, maxFt int
	switch {
	case r.HeightMinFt.Valid && r.HeightMaxFt.Valid:
		minFt = int(math.Round(r.HeightMinFt.Float64))
		maxFt = int(math.Round(r.HeightMaxFt.Float64))
	case r.HeightMaxFt.Valid:
		minFt, maxFt = DeriveRange(int(math.Round(r.HeightMaxFt.Float64)))
	case r.HeightMinFt.Valid:
		minFt, maxFt = DeriveRange(int(math.Round(r.HeightMinFt.Float64)))
	case r.HeightMeters.Valid:
		minFt, maxFt = DeriveRange(MetersToFeet(r.HeightMeters.Float64))
	default:
		return 0, 0, false
	}
	minFt, maxFt = clampBand(minFt, maxFt)
	return minFt, maxFt, true
}

func clampBand(minFt, maxFt int) (int, int) {
	if maxFt < minFt {
		minFt, maxFt = maxFt, minFt
	}
	minFt = max(1, minFt)
	maxFt = max(maxFt, minFt)
	return minFt, maxFt
}

func compass(r models.Report) sql.NullString {
	if r.WindDirection.Valid {
		dir := strings.ToUpper(strings.TrimSpace(r.WindDirection.String))
		if IsCompassPoint(dir) {
			return sql.NullString{String: dir, Valid: true}
		}
	}
	if r.DirectionDeg.Valid {
		return sql.NullString{String: DegreesToCompass(r.DirectionDeg.Float64), Valid: true}
	}
	return sql.NullString{}
}
