package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamActiveSubscriptions tracks live WebSocket subscriptions on this instance (C7).
	StreamActiveSubscriptions = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "active_subscriptions",
			Help:      "Number of live WebSocket subscriptions on this instance",
		},
	)

	// StreamPublishes tracks attempted live deliveries and their outcome.
	StreamPublishes = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "publishes_total",
			Help:      "Total number of live-stream publish attempts",
		},
		[]string{"outcome"}, // delivered, skipped (inbound pipeline); ok, write_error, write_deadline_error (WebSocket writer)
	)
)
