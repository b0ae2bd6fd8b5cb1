package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec // labels: outcome={results,empty,failed}
	RunDuration        prometheus.Histogram
	ActivitiesInserted prometheus.Counter

	// Source adapter metrics.
	ListingsScraped *prometheus.CounterVec // labels: source
	SourceErrors    *prometheus.CounterVec // labels: source

	// Geocoding metrics.
	GeocodeResolutions *prometheus.CounterVec   // labels: tier={static,remote,partial,scope,none}
	GeocodeRequests    *prometheus.CounterVec   // labels: outcome={success,error,empty,not_json}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by terminal outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "activity_ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete scrape-geocode-persist run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ActivitiesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "activities_inserted_total",
			Help:      "Canonical activities newly inserted into the store.",
		}),
		ListingsScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "listings_scraped_total",
			Help:      "Raw listings extracted, by source adapter.",
		}, []string{"source"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "source_errors_total",
			Help:      "Source adapter fetch/parse failures, by source adapter.",
		}, []string{"source"}),
		GeocodeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "geocode_resolutions_total",
			Help:      "Geocode resolutions by winning tier.",
		}, []string{"tier"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "geocode_requests_total",
			Help:      "Remote geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "activity_ingest",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "activity_ingest",
			Name:      "geocode_api_duration_seconds",
			Help:      "Remote geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ActivitiesInserted,
		m.ListingsScraped,
		m.SourceErrors,
		m.GeocodeResolutions,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "activity_ingest", Name: "run_duration_seconds"}),
		ActivitiesInserted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "activities_inserted_total"}),
		ListingsScraped:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "listings_scraped_total"}, []string{"source"}),
		SourceErrors:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "source_errors_total"}, []string{"source"}),
		GeocodeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "geocode_resolutions_total"}, []string{"tier"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "activity_ingest", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "activity_ingest", Name: "geocode_api_duration_seconds"}),
	}
}
