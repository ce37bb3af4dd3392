package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var latencyBuckets = []float64{
	0.001, // 1ms
	0.005, // 5ms
	0.01,  // 10ms
	0.025, // 25ms
	0.05,  // 50ms
	0.1,   // 100ms
	0.25,  // 250ms
	0.5,   // 500ms
	1.0,   // 1s
	2.5,   // 2.5s
	5.0,   // 5s
}

var (
	// SearchDuration tracks end-to-end listing search latency
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keja_search_duration_seconds",
			Help:    "Duration of listing searches in seconds",
			Buckets: latencyBuckets,
		},
		[]string{"status"},
	)

	// SearchPromotedResults counts promoted listings placed ahead of organic results
	SearchPromotedResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keja_search_promoted_results",
			Help:    "Number of currently promoted listings per search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	PromotionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keja_promotion_decisions_total",
			Help: "Promotion request decisions by outcome and status",
		},
		[]string{"outcome", "status"},
	)

	PromotionRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keja_promotion_repairs_total",
			Help: "Approved promotions whose listing stamp was replayed on read",
		},
		[]string{"status"},
	)

	LockContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keja_listing_lock_contention_total",
			Help: "Listing lock acquisitions that had to wait for another holder",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keja_events_published_total",
			Help: "Promotion lifecycle events published to Kafka",
		},
		[]string{"event_type", "status"},
	)

	KafkaPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keja_kafka_publish_duration_seconds",
			Help:    "Kafka publish latency by topic and status",
			Buckets: latencyBuckets,
		},
		[]string{"topic", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keja_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: latencyBuckets,
		},
		[]string{"method", "status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keja_rate_limited_total",
			Help: "Requests rejected by the per-caller rate limiter",
		},
	)
)

func Status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

func RecordSearchDuration(status string, seconds float64) {
	SearchDuration.WithLabelValues(status).Observe(seconds)
}

func RecordPromotionDecision(outcome, status string) {
	PromotionDecisions.WithLabelValues(outcome, status).Inc()
}

func RecordRepair(status string) {
	PromotionRepairs.WithLabelValues(status).Inc()
}

func RecordEvent(eventType, status string) {
	EventsPublished.WithLabelValues(eventType, status).Inc()
}

func RecordKafkaPublish(topic, status string, seconds float64) {
	KafkaPublishDuration.WithLabelValues(topic, status).Observe(seconds)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
