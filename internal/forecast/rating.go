package forecast

import "github.com/lox/surfcast/internal/models"

// Classify derives a qualitative rating from wave height and swell period.
// Rules are checked in order and the first match wins.
func Classify(heightFt, periodSec float64) models.Rating {
	switch {
	case heightFt >= 6 && periodSec >= 12:
		return models.RatingEpic
	case heightFt >= 4 && periodSec >= 10:
		return models.RatingGood
	case heightFt >= 2 && periodSec >= 8:
		return models.RatingFair
	default:
		return models.RatingPoor
	}
}
