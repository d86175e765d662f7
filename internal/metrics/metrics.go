// Package metrics provides Prometheus metrics for the blog API.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration measures request handling time.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blog",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ReactionsTotal counts like/dislike toggles.
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "reactions_total",
			Help:      "Total number of like and dislike toggles",
		},
		[]string{"kind", "action"},
	)

	// RankingErrorsTotal counts failed writes or reads of the popular posts ranking.
	RankingErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "ranking_errors_total",
			Help:      "Total number of popular posts ranking errors",
		},
		[]string{"operation"},
	)

	// PopularCacheTotal counts popular posts cache lookups.
	PopularCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "popular_cache_lookups_total",
			Help:      "Popular posts cache lookups by result",
		},
		[]string{"result"},
	)

	// PurgedTokensTotal counts expired blacklist entries removed by maintenance.
	PurgedTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "purged_tokens_total",
			Help:      "Total number of expired blacklisted tokens purged",
		},
	)
)

// RecordRequest records a finished HTTP request.
func RecordRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordReaction records a like or dislike toggle.
func RecordReaction(kind string, added bool) {
	action := "removed"
	if added {
		action = "added"
	}
	ReactionsTotal.WithLabelValues(kind, action).Inc()
}

// RecordRankingError records a failed ranking operation.
func RecordRankingError(operation string) {
	RankingErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordPopularCache records a cache hit or miss.
func RecordPopularCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PopularCacheTotal.WithLabelValues(result).Inc()
}
