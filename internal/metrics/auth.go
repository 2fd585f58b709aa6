package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthChallengesIssued tracks /authenticate/challenge calls (C4).
	AuthChallengesIssued = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "challenges_issued_total",
			Help:      "Total number of authentication challenges issued",
		},
	)

	// AuthTokensMinted tracks successful authentications.
	AuthTokensMinted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "tokens_minted_total",
			Help:      "Total number of access/refresh token pairs minted",
		},
	)

	// AuthFailures tracks every AuthFailed outcome, coarse by design
	// (spec.md §4.4: "the same error kind for every distinct failure").
	AuthFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total number of authentication failures",
		},
	)
)
