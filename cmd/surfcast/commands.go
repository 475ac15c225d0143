package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/surfcast/internal/api"
	"github.com/lox/surfcast/internal/catalog"
	"github.com/lox/surfcast/internal/config"
	"github.com/lox/surfcast/internal/ingest"
	"github.com/lox/surfcast/internal/store"
)

type ServeCmd struct {
	config.Providers
	config.Refresh

	Port     string        `help:"HTTP server port." default:"8080" env:"PORT"`
	Interval time.Duration `help:"Time between background refresh cycles." default:"30m" env:"REFRESH_INTERVAL"`
	NoPoll   bool          `help:"Disable the background refresh scheduler."`
	Catalog  string        `help:"Seed locations from this YAML catalog before starting." type:"existingfile" env:"SURFCAST_CATALOG"`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	if c.Catalog != "" {
		if err := seedCatalog(ctx, g.Store, c.Catalog); err != nil {
			return err
		}
	}

	refresher := buildRefresher(g.Store, c.Providers, c.Refresh)
	server := api.NewServer(g.Store, refresher, c.Port)
	refresher.SetOnRefresh(server.InvalidateForecast)

	group, ctx := errgroup.WithContext(ctx)
	if !c.NoPoll {
		scheduler := ingest.NewScheduler(refresher, c.Interval)
		group.Go(func() error { return scheduler.Run(ctx) })
	} else {
		log.Info().Msg("polling disabled (--no-poll)")
	}
	group.Go(func() error { return server.Run(ctx) })
	return group.Wait()
}

type RefreshCmd struct {
	config.Providers
	config.Refresh
}

func (c *RefreshCmd) Run(ctx context.Context, g *Globals) error {
	refresher := buildRefresher(g.Store, c.Providers, c.Refresh)
	summary, err := refresher.RefreshStale(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("cycle %s: %d stale, %d refreshed, %d failed\n",
		summary.CycleID, summary.Stale, summary.Refreshed, summary.Failed)
	return nil
}

type StaleCmd struct {
	MaxAge time.Duration `help:"Forecasts older than this are stale." default:"6h" env:"MAX_AGE"`
}

func (c *StaleCmd) Run(ctx context.Context, g *Globals) error {
	stale, err := g.Store.GetStaleLocations(ctx, c.MaxAge)
	if err != nil {
		return err
	}
	for _, loc := range stale {
		last, err := g.Store.GetLastUpdated(ctx, loc.ID)
		if err != nil {
			return err
		}
		updated := "never"
		if last != nil {
			updated = last.Format(time.RFC3339)
		}
		fmt.Printf("%-24s %-32s %s\n", loc.ID, loc.Name, updated)
	}
	return nil
}

type SeedCmd struct {
	File string `arg:"" help:"Location catalog YAML file." type:"existingfile"`
}

func (c *SeedCmd) Run(ctx context.Context, g *Globals) error {
	return seedCatalog(ctx, g.Store, c.File)
}

type ImportProviderCmd struct {
	File      string  `arg:"" help:"Provider payload JSON file." type:"existingfile"`
	Latitude  float64 `help:"Latitude the payload was issued for." required:""`
	Longitude float64 `help:"Longitude the payload was issued for." required:""`
	Provider  string  `help:"Provider name recorded with the payload." default:"stored-provider"`
}

func (c *ImportProviderCmd) Run(ctx context.Context, g *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	payload, err := ingest.ParseStoredPayload(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	id, err := g.Store.StoreProviderPayload(ctx, c.Provider, c.Latitude, c.Longitude, data)
	if err != nil {
		return err
	}
	log.Info().Int64("id", id).Int("days", len(payload.Days)).
		Float64("lat", c.Latitude).Float64("lng", c.Longitude).Msg("imported provider payload")
	return nil
}

func seedCatalog(ctx context.Context, st *store.Store, path string) error {
	f, err := catalog.Load(path)
	if err != nil {
		return err
	}
	n, err := catalog.Seed(ctx, st, f)
	if err != nil {
		return err
	}
	log.Info().Int("locations", n).Str("catalog", path).Msg("catalog seeded")
	return nil
}
