// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bankcards"

var (
	// Transfers counts transfer attempts by result ("success" or the failure kind)
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfers_total",
		Help:      "Intra-user card transfers by result.",
	}, []string{"result"})

	// BlockRequestsProcessed counts admin decisions on block requests
	BlockRequestsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "block_requests_processed_total",
		Help:      "Processed block requests by decision.",
	}, []string{"decision"})

	// RefreshTokensCleaned counts refresh tokens removed by the cleanup job
	RefreshTokensCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_cleaned_total",
		Help:      "Revoked and expired refresh tokens deleted by the cleanup job.",
	})

	// TokenCleanupDuration observes how long each cleanup run takes
	TokenCleanupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "token_cleanup_duration_seconds",
		Help:      "Duration of refresh token cleanup runs.",
		Buckets:   prometheus.DefBuckets,
	})
)
