package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InboundMessagesTotal tracks inbound envelopes processed by the pipeline (C6).
	InboundMessagesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inbound",
			Name:      "messages_total",
			Help:      "Total number of inbound envelopes processed",
		},
		[]string{"protocol", "outcome"}, // message type URI or "unknown"; stored/ephemeral/dropped/unpack_error/dispatch_error/pack_error
	)

	// InboundPipelineDuration tracks end-to-end parse->unpack->dispatch->pack duration.
	InboundPipelineDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inbound",
			Name:      "pipeline_duration_seconds",
			Help:      "Inbound pipeline processing duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 15),
		},
		[]string{"protocol"},
	)

	// InboundRecipientErrors tracks per-recipient fan-out errors (collected, not aborting).
	InboundRecipientErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inbound",
			Name:      "recipient_errors_total",
			Help:      "Per-recipient fan-out errors collected during pack/store/stream",
		},
		[]string{"kind"},
	)
)
