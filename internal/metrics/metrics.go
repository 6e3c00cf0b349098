// Package metrics exposes Prometheus instrumentation for newsapi calls and
// the harvest loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/samvad-hq/newsapi-harvester/pkg/newsapi"
)

const outcomeOK = "ok"

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsapi_requests_total",
			Help: "Total number of newsapi requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok|invalid_url|failed_request|decoding_error|error_response
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsapi_request_duration_seconds",
			Help:    "newsapi request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"endpoint"},
	)

	articlesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_articles_published_total",
			Help: "Articles published downstream per saved query",
		},
		[]string{"query"},
	)

	articlesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_articles_skipped_total",
			Help: "Articles dropped because they were already published",
		},
		[]string{"query"},
	)
)

// Outcome labels err the way newsapi_requests_total does.
func Outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	if kind := newsapi.KindOf(err); kind != "" {
		return string(kind)
	}
	return "unknown"
}

// ObserveRequest records one newsapi round trip.
func ObserveRequest(endpoint newsapi.Endpoint, err error, elapsed time.Duration) {
	requestsTotal.WithLabelValues(string(endpoint), Outcome(err)).Inc()
	requestDuration.WithLabelValues(string(endpoint)).Observe(elapsed.Seconds())
}

// ArticlesPublished adds n published articles for query.
func ArticlesPublished(query string, n int) {
	if n > 0 {
		articlesPublished.WithLabelValues(query).Add(float64(n))
	}
}

// ArticlesSkipped adds n deduplicated articles for query.
func ArticlesSkipped(query string, n int) {
	if n > 0 {
		articlesSkipped.WithLabelValues(query).Add(float64(n))
	}
}
