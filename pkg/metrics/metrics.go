package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docmap_requests_total",
		Help: "Total number of API requests by route and status code",
	}, []string{"route", "code"})
	AssembleDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docmap_assemble_duration_ms",
		Help:    "Figure assembly duration in milliseconds",
		Buckets: durationBuckets,
	})
	FetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "docmap_fetch_duration_ms",
		Help:    "Row source fetch duration in milliseconds",
		Buckets: durationBuckets,
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docmap_cache_hits_total",
		Help: "Total figure cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docmap_cache_misses_total",
		Help: "Total figure cache misses",
	})
	SourceFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docmap_source_failures_total",
		Help: "Total row source failures",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(AssembleDurationMs)
	prometheus.MustRegister(FetchDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(SourceFailuresTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
