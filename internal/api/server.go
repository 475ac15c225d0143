package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/lox/surfcast/internal/ingest"
	"github.com/lox/surfcast/internal/store"
)

const (
	responseCacheSize = 256
	responseCacheTTL  = time.Minute
)

type Server struct {
	store     *store.Store
	refresher *ingest.Refresher
	port      string
	now       func() time.Time

	responses *lru.LRU[string, []byte]
	inflight  singleflight.Group
}

// NewServer builds the HTTP API. refresher may be nil, in which case stale
// forecasts are served as stored and never refreshed on demand.
func NewServer(st *store.Store, refresher *ingest.Refresher, port string) *Server {
	return &Server{
		store:     st,
		refresher: refresher,
		port:      port,
		now:       time.Now,
		responses: lru.NewLRU[string, []byte](responseCacheSize, nil, responseCacheTTL),
	}
}

// SetClock overrides the time source used for staleness checks.
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
}

// InvalidateForecast drops the cached forecast response for a location.
func (s *Server) InvalidateForecast(locationID string) {
	s.responses.Remove(locationID)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/locations", s.handleAPILocations)
	mux.HandleFunc("/api/forecast", s.handleAPIForecast)
	mux.HandleFunc("/api/stale", s.handleAPIStale)
	mux.HandleFunc("/api/refresh-runs", s.handleAPIRefreshRuns)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server: shutdown")
		}
	}()

	log.Info().Str("port", s.port).Msg("server: listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
