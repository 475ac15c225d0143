package forecast

import "math"

const feetPerMeter = 3.28084

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// MetersToFeet converts a wave height in metres to whole feet, rounding to nearest.
func MetersToFeet(m float64) int {
	return int(math.Round(m * feetPerMeter))
}

// DegreesToCompass maps a bearing to one of eight compass points.
// Each point owns the 45° sector starting at its bearing, so 44° is still N.
func DegreesToCompass(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Floor(deg/45)) % len(compassPoints)
	return compassPoints[idx]
}

// IsCompassPoint reports whether s is one of the eight compass points.
func IsCompassPoint(s string) bool {
	for _, p := range compassPoints {
		if p == s {
			return true
		}
	}
	return false
}

// DeriveRange turns a single height estimate into a min/max band.
func DeriveRange(pointFt int) (minFt, maxFt int) {
	return max(1, pointFt-1), pointFt
}
