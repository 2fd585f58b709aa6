package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MailboxStored tracks successful store_message calls (C3).
	MailboxStored = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mailbox",
			Name:      "stored_total",
			Help:      "Total number of messages stored into recipient mailboxes",
		},
	)

	// MailboxOverCapacity tracks store_message rejections for full queues.
	MailboxOverCapacity = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mailbox",
			Name:      "over_capacity_total",
			Help:      "Total number of store_message calls rejected with OverCapacity",
		},
	)

	// MailboxExpiredSwept tracks entries removed by the periodic expiry sweep.
	MailboxExpiredSwept = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mailbox",
			Name:      "expired_swept_total",
			Help:      "Total number of expired messages removed by the sweep",
		},
	)

	// MailboxQueueDepth is a gauge of live messages across all mailboxes.
	// Neither mailbox store sets it.
	MailboxQueueDepth = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mailbox",
			Name:      "queue_depth",
			Help:      "Total number of live messages across all mailboxes",
		},
	)

	// MailboxOperationDuration tracks store-level operation latency.
	MailboxOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mailbox",
			Name:      "operation_duration_seconds",
			Help:      "Mailbox store operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
		[]string{"operation"}, // store, list, get, delete, sweep
	)
)
