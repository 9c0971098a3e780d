// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Completions counts watch completions by outcome: first, rewatch, rejected
	Completions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsvideohub_watch_completions_total",
			Help: "Watch completions, by outcome.",
		},
		[]string{"outcome"},
	)

	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsvideohub_global_sync_runs_total",
			Help: "Global playlist sync runs, by result.",
		},
		[]string{"result"},
	)

	SyncVideosCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kidsvideohub_global_sync_videos_created_total",
			Help: "Videos copied into subscriber libraries.",
		},
	)

	// ResolverLookups counts short-link resolutions: hit, miss, error
	ResolverLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsvideohub_resolver_lookups_total",
			Help: "TikTok short-link resolutions, by result.",
		},
		[]string{"result"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kidsvideohub_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kidsvideohub_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)
)

// Register adds all collectors, plus connection pool stats for db when it is
// not nil. Call once at startup.
func Register(reg prometheus.Registerer, db *sql.DB) error {
	cs := []prometheus.Collector{
		Completions,
		SyncRuns,
		SyncVideosCreated,
		ResolverLookups,
		RequestDuration,
		RequestsInFlight,
	}
	if db != nil {
		cs = append(cs, collectors.NewDBStatsCollector(db, "kidsvideohub"))
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics of gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
