package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/lox/surfcast/internal/models"
)

const (
	GlobalModelName    = "global-model"
	globalModelDays    = 7
	defaultGlobalModel = "https://marine-api.open-meteo.com/v1/marine"
)

// GlobalModelClient reads the worldwide open-ocean wave model (Open-Meteo Marine).
// It never supplies a rating.
type GlobalModelClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewGlobalModelClient(client *http.Client, baseURL string) *GlobalModelClient {
	if baseURL == "" {
		baseURL = defaultGlobalModel
	}
	return &GlobalModelClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newBreaker(GlobalModelName),
	}
}

func (c *GlobalModelClient) Name() string {
	return GlobalModelName
}

type marineResponse struct {
	Daily struct {
		Time                  []string   `json:"time"`
		WaveHeightMax         []*float64 `json:"wave_height_max"`
		WavePeriodMax         []*float64 `json:"wave_period_max"`
		WaveDirectionDominant []*float64 `json:"wave_direction_dominant"`
	} `json:"daily"`
}

func (c *GlobalModelClient) BuildURL(lat, lng float64) string {
	return fmt.Sprintf(
		"%s?latitude=%.4f&longitude=%.4f&daily=wave_height_max,wave_period_max,wave_direction_dominant&timezone=GMT&forecast_days=%d",
		c.baseURL, lat, lng, globalModelDays,
	)
}

func (c *GlobalModelClient) Fetch(ctx context.Context, loc models.Location) ([]models.Report, error) {
	body, err := getJSONBody(ctx, c.client, c.circuit, GlobalModelName, c.BuildURL(loc.Latitude, loc.Longitude), nil)
	if err != nil {
		return nil, err
	}

	var data marineResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ProviderError{Provider: GlobalModelName, Op: "decode", Err: err}
	}

	daily := data.Daily
	n := min(len(daily.Time), globalModelDays)
	reports := make([]models.Report, 0, n)
	for i := 0; i < n; i++ {
		height := at(daily.WaveHeightMax, i)
		if !height.Valid {
			continue
		}
		date, err := models.ParseDay(daily.Time[i])
		if err != nil {
			log.Debug().Str("provider", GlobalModelName).Str("date", daily.Time[i]).Msg("global model: skipping entry with bad date")
			continue
		}
		reports = append(reports, models.Report{
			Date:         date,
			HeightMeters: height,
			PeriodSec:    at(daily.WavePeriodMax, i),
			DirectionDeg: at(daily.WaveDirectionDominant, i),
		})
	}

	if len(reports) == 0 {
		return nil, ErrProviderEmpty
	}
	return reports, nil
}

// at reads a nullable cell from a parallel array that may be shorter than time.
func at(values []*float64, i int) sql.NullFloat64 {
	if i >= len(values) || values[i] == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *values[i], Valid: true}
}
