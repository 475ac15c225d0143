package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/lox/surfcast/internal/config"
	"github.com/lox/surfcast/internal/httputil"
	"github.com/lox/surfcast/internal/ingest"
	"github.com/lox/surfcast/internal/store"
)

type CLI struct {
	config.Logging
	config.Database

	Serve          ServeCmd          `cmd:"" help:"Run the HTTP API and the background refresh scheduler."`
	Refresh        RefreshCmd        `cmd:"" help:"Refresh every stale location once and exit."`
	Stale          StaleCmd          `cmd:"" help:"List locations whose forecasts are stale."`
	Seed           SeedCmd           `cmd:"" help:"Load the location catalog from a YAML file."`
	ImportProvider ImportProviderCmd `cmd:"" name:"import-provider" help:"Import a stored provider forecast payload."`
}

// Globals is bound into every command's Run method.
type Globals struct {
	Store *store.Store
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("surfcast"),
		kong.Description("Surf forecast aggregation and staleness cache."),
		kong.UsageOnError(),
	)
	cli.InitializeLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := openDB(ctx, cli.DB)
	if err != nil {
		log.Fatal().Err(err).Str("db", cli.DB).Msg("open database")
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(&Globals{Store: st}))
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// buildRefresher wires the provider waterfall. The spotter step is skipped
// when no spotter URL is configured.
func buildRefresher(st *store.Store, providers config.Providers, refresh config.Refresh) *ingest.Refresher {
	client := httputil.NewClient(providers.HTTPTimeout)

	var spotter ingest.Provider
	if providers.SpotterURL != "" {
		spotter = ingest.NewSpotterClient(client, providers.SpotterURL, providers.SpotterAPIKey)
	} else {
		log.Info().Msg("spotter network not configured; skipping spotter step")
	}

	aggregator := ingest.NewAggregator(
		spotter,
		ingest.NewStoredProvider(st),
		ingest.NewGlobalModelClient(client, providers.GlobalModelURL),
		ingest.WithAdapterTimeout(providers.AdapterTimeout),
	)
	return ingest.NewRefresher(st, aggregator, refresh.MaxAge, refresh.Concurrency)
}
