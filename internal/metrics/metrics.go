package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfcast_provider_calls_total",
			Help: "Total forecast provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surfcast_provider_latency_seconds",
			Help:    "Forecast provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ForecastsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfcast_forecasts_upserted_total",
			Help: "Total daily forecasts written to the store",
		},
		[]string{"source"},
	)

	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfcast_refresh_runs_total",
			Help: "Total location refresh runs by status",
		},
		[]string{"status"},
	)

	StaleLocations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "surfcast_stale_locations",
			Help: "Locations found stale at the start of the last refresh cycle",
		},
	)

	ReportQualityFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfcast_report_quality_flags_total",
			Help: "Suspicious provider report fields by flag",
		},
		[]string{"provider", "flag"},
	)

	StoreWriteRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "surfcast_store_write_retries_total",
			Help: "Forecast writes retried because the database was busy",
		},
	)
)
