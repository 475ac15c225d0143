package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lox/surfcast/internal/ingest"
	"github.com/lox/surfcast/internal/models"
	"github.com/lox/surfcast/internal/store"
)

const defaultRefreshRunLimit = 20

var validate = validator.New()

type staleQuery struct {
	MaxAgeHours float64 `validate:"gte=0,lte=720"`
}

type refreshRunsQuery struct {
	Limit int `validate:"gte=1,lte=500"`
}

func (s *Server) maxAge() time.Duration {
	if s.refresher != nil {
		return s.refresher.MaxAge()
	}
	return ingest.DefaultMaxAge
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	maxAge := s.maxAge()

	health := HealthStatus{Status: "ok", Locations: []LocationHealth{}}

	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		health.Status = "error"
		health.Errors = append(health.Errors, "database: "+err.Error())
	}

	for _, loc := range locations {
		last, err := s.store.GetLastUpdated(ctx, loc.ID)
		if err != nil {
			health.Status = "error"
			health.Errors = append(health.Errors, fmt.Sprintf("%s: %v", loc.ID, err))
			continue
		}
		lh := LocationHealth{LocationID: loc.ID, LastUpdate: last, AgeMinutes: -1}
		if last != nil {
			lh.AgeMinutes = int(now.Sub(*last).Minutes())
		}
		lh.Stale = store.IsStale(last, now, maxAge)
		if lh.Stale && health.Status == "ok" {
			health.Status = "degraded"
		}
		health.Locations = append(health.Locations, lh)
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "error" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Error().Err(err).Msg("health: encode response")
	}
}

func (s *Server) handleAPILocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.store.ListLocations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]LocationView, 0, len(locations))
	for _, loc := range locations {
		views = append(views, newLocationView(loc))
	}
	writeJSON(w, views)
}

// handleAPIForecast serves stored forecasts for a location, refreshing them
// first when they are missing or stale. Concurrent requests for the same
// location share one refresh.
func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("location")
	if id == "" {
		http.Error(w, "missing location parameter", http.StatusBadRequest)
		return
	}

	if body, ok := s.responses.Get(id); ok {
		writeJSONBytes(w, body)
		return
	}

	loc, err := s.store.GetLocation(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if loc == nil {
		http.Error(w, "unknown location", http.StatusNotFound)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	v, err, _ := s.inflight.Do(id, func() (any, error) {
		return s.buildForecastResponse(ctx, *loc)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONBytes(w, v.([]byte))
}

func (s *Server) buildForecastResponse(ctx context.Context, loc models.Location) ([]byte, error) {
	last, err := s.store.GetLastUpdated(ctx, loc.ID)
	if err != nil {
		return nil, err
	}

	stale := store.IsStale(last, s.now(), s.maxAge())
	if stale && s.refresher != nil {
		if _, err := s.refresher.RefreshLocation(ctx, uuid.NewString(), loc); err != nil {
			log.Warn().Err(err).Str("location", loc.ID).Msg("forecast: on-demand refresh failed")
		} else if last, err = s.store.GetLastUpdated(ctx, loc.ID); err != nil {
			return nil, err
		} else {
			stale = store.IsStale(last, s.now(), s.maxAge())
		}
	}

	forecasts, err := s.store.GetForecasts(ctx, loc.ID)
	if err != nil {
		return nil, err
	}

	resp := ForecastResponse{
		Location:      newLocationView(loc),
		Forecasts:     make([]ForecastView, 0, len(forecasts)),
		LastUpdatedAt: last,
		Stale:         stale,
	}
	for _, fc := range forecasts {
		resp.Forecasts = append(resp.Forecasts, newForecastView(fc))
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if !stale {
		s.responses.Add(loc.ID, body)
	}
	return body, nil
}

func (s *Server) handleAPIStale(w http.ResponseWriter, r *http.Request) {
	q := staleQuery{MaxAgeHours: s.maxAge().Hours()}
	if raw := r.URL.Query().Get("max_age_hours"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid max_age_hours", http.StatusBadRequest)
			return
		}
		q.MaxAgeHours = hours
	}
	if err := validate.Struct(q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxAge := time.Duration(q.MaxAgeHours * float64(time.Hour))
	locations, err := s.store.GetStaleLocations(r.Context(), maxAge)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]LocationView, 0, len(locations))
	for _, loc := range locations {
		views = append(views, newLocationView(loc))
	}
	writeJSON(w, views)
}

func (s *Server) handleAPIRefreshRuns(w http.ResponseWriter, r *http.Request) {
	q := refreshRunsQuery{Limit: defaultRefreshRunLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}
	if err := validate.Struct(q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	runs, err := s.store.GetRecentRefreshRuns(r.Context(), q.Limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	views := make([]RefreshRunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRefreshRunView(run))
	}
	writeJSON(w, views)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("api: encode response")
	}
}

func writeJSONBytes(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("api: write response")
	}
}
