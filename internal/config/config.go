package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logging holds the flags shared by every command.
type Logging struct {
	Env      string `help:"Runtime environment; local and development log to the console." default:"production" env:"ENV"`
	LogLevel string `help:"Log level (trace, debug, info, warn, error)." default:"info" env:"LOG_LEVEL"`
}

// Database selects the SQLite file.
type Database struct {
	DB string `help:"Path to SQLite database." default:"data/surfcast.db" env:"SURFCAST_DB"`
}

// Providers configures the forecast sources.
type Providers struct {
	SpotterURL     string        `help:"Regional spotter network base URL; empty disables the spotter step." env:"SPOTTER_URL"`
	SpotterAPIKey  string        `help:"Regional spotter network API key." env:"SPOTTER_API_KEY"`
	GlobalModelURL string        `help:"Global wave model endpoint." default:"https://marine-api.open-meteo.com/v1/marine" env:"GLOBAL_MODEL_URL"`
	AdapterTimeout time.Duration `help:"Deadline for each provider call." default:"10s" env:"ADAPTER_TIMEOUT"`
	HTTPTimeout    time.Duration `help:"Overall HTTP client timeout." default:"30s" env:"HTTP_TIMEOUT"`
}

// Refresh controls staleness and the refresh fan-out.
type Refresh struct {
	MaxAge      time.Duration `help:"Forecasts older than this are refreshed." default:"6h" env:"MAX_AGE"`
	Concurrency int           `help:"Locations refreshed in parallel." default:"4" env:"REFRESH_CONCURRENCY"`
}

// ParseLevel falls back to info for unknown or empty levels.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// InitializeLogging sets up the global logger.
func (l Logging) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(ParseLevel(l.LogLevel))

	if l.Env == "local" || l.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}
