package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GeoRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "world_geo_requests_total",
		Help: "Total number of /geo requests",
	})
	GeoDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "world_geo_duration_ms",
		Help:    "Locate duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	GeoNotFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "world_geo_not_found_total",
		Help: "Total number of coordinates with no place found",
	})
	GeoCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "world_geo_cache_hits_total",
		Help: "Locate cache hits by tier",
	}, []string{"tier"})
	AnchorLevelTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "world_anchor_level_total",
		Help: "Anchors resolved by level",
	}, []string{"level"})
	AnchorProbes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "world_anchor_probes",
		Help:    "Nearest-within-radius probes per resolution",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
	})
	TraversalErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "world_traversal_errors_total",
		Help: "Ancestry traversal inconsistencies by kind",
	}, []string{"kind"})
	IngestRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "world_ingest_records_total",
		Help: "Ingest record outcomes by pass and outcome",
	}, []string{"pass", "outcome"})
	IngestPassDurationS = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "world_ingest_pass_duration_seconds",
		Help:    "Ingest pass duration in seconds",
		Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600},
	}, []string{"pass"})
	SearchRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "world_search_requests_total",
		Help: "Total number of /places/search requests",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "world_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(GeoRequestsTotal)
	prometheus.MustRegister(GeoDurationMs)
	prometheus.MustRegister(GeoNotFoundTotal)
	prometheus.MustRegister(GeoCacheHitsTotal)
	prometheus.MustRegister(AnchorLevelTotal)
	prometheus.MustRegister(AnchorProbes)
	prometheus.MustRegister(TraversalErrorsTotal)
	prometheus.MustRegister(IngestRecordsTotal)
	prometheus.MustRegister(IngestPassDurationS)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(RateLimitedTotal)
}

// Handler：Prometheus 抓取端点
func Handler() http.Handler { return promhttp.Handler() }
