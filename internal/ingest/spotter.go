package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/lox/surfcast/internal/models"
)

const (
	SpotterName = "spotter"
	spotterDays = 7
)

// SpotterClient reads already-rated forecasts from the regional spotter network.
type SpotterClient struct {
	baseURL string
	apiKey  string
	region  Region
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewSpotterClient(client *http.Client, baseURL, apiKey string) *SpotterClient {
	return &SpotterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		region:  SpotterRegion,
		client:  client,
		circuit: newBreaker(SpotterName),
	}
}

func (c *SpotterClient) Name() string {
	return SpotterName
}

type spotterResponse struct {
	Forecasts []spotterForecast `json:"forecasts"`
}

type spotterForecast struct {
	Date          string   `json:"date"`
	WaveHeightMin *float64 `json:"waveHeightMin"`
	WaveHeightMax *float64 `json:"waveHeightMax"`
	Rating        string   `json:"rating"`
	SpotName      string   `json:"spotName"`
}

func (c *SpotterClient) BuildURL(lat, lng float64) string {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%.4f", lat))
	values.Set("lng", fmt.Sprintf("%.4f", lng))
	values.Set("days", fmt.Sprintf("%d", spotterDays))
	return fmt.Sprintf("%s/forecasts?%s", c.baseURL, values.Encode())
}

func (c *SpotterClient) Fetch(ctx context.Context, loc models.Location) ([]models.Report, error) {
	if !c.region.ContainsLocation(loc) {
		return nil, ErrOutOfRegion
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	body, err := getJSONBody(ctx, c.client, c.circuit, SpotterName, c.BuildURL(loc.Latitude, loc.Longitude), header)
	if err != nil {
		return nil, err
	}

	var data spotterResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ProviderError{Provider: SpotterName, Op: "decode", Err: err}
	}

	reports := make([]models.Report, 0, len(data.Forecasts))
	for _, f := range data.Forecasts {
		date, err := models.ParseDay(f.Date)
		if err != nil {
			log.Debug().Str("provider", SpotterName).Str("date", f.Date).Msg("spotter: skipping entry with bad date")
			continue
		}
		r := models.Report{Date: date}
		if f.WaveHeightMin != nil {
			r.HeightMinFt = sql.NullFloat64{Float64: *f.WaveHeightMin, Valid: true}
		}
		if f.WaveHeightMax != nil {
			r.HeightMaxFt = sql.NullFloat64{Float64: *f.WaveHeightMax, Valid: true}
		}
		if f.Rating != "" {
			r.Rating = sql.NullString{String: f.Rating, Valid: true}
		}
		reports = append(reports, r)
	}

	if len(reports) == 0 {
		return nil, ErrProviderEmpty
	}
	return reports, nil
}
