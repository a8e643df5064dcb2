// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Listing metrics ───────────────────────────────────────────────────────────

// ListingMutationsTotal counts successful product store mutations.
// Label:
//   - op: "create", "update" or "delete"
var ListingMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_mutations_total",
		Help:      "Total number of listing mutations, by operation.",
	},
	[]string{"op"},
)

// ListingRejectionsTotal counts mutations refused by the store.
// Label:
//   - reason: "forbidden", "version_conflict" or "validation"
var ListingRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_rejections_total",
		Help:      "Total number of listing mutations rejected, by reason.",
	},
	[]string{"reason"},
)

// ── Cart metrics ──────────────────────────────────────────────────────────────

// CartOperationsTotal counts cart ledger mutations.
// Label:
//   - op: "add", "remove" or "clear"
var CartOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Total number of cart mutations, by operation.",
	},
	[]string{"op"},
)

// CheckoutsTotal counts checkout attempts.
// Label:
//   - result: "placed", "replayed", "empty", "locked" or "failed"
var CheckoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts, by result.",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts domain events handed to the sink successfully.
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of domain events delivered, by subject.",
	},
	[]string{"subject"},
)

// EventsErrorsTotal counts events that could not be delivered.
// Label:
//   - reason: "queue_full", "stopped" or "publish_failed"
var EventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of domain events that failed delivery.",
	},
	[]string{"reason"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventDeliveryDuration measures how long the sink takes to accept one event.
var EventDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_delivery_duration_seconds",
		Help:      "Duration of event delivery from dequeue to sink acknowledgement.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"subject"},
)

// ── Image metrics ─────────────────────────────────────────────────────────────

// ImagesUploadedTotal counts stored uploads by backend ("local" or "minio").
var ImagesUploadedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_uploaded_total",
		Help:      "Total number of images stored, by backend.",
	},
	[]string{"backend"},
)
