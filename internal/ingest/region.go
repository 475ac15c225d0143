package ingest

import "github.com/lox/surfcast/internal/models"

// Region is an inclusive latitude/longitude bounding box.
type Region struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// SpotterRegion is the coverage box of the regional spotter network.
var SpotterRegion = Region{MinLat: 32.5, MaxLat: 42, MinLng: -124.5, MaxLng: -114}

func (r Region) Contains(lat, lng float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lng >= r.MinLng && lng <= r.MaxLng
}

func (r Region) ContainsLocation(loc models.Location) bool {
	return r.Contains(loc.Latitude, loc.Longitude)
}
