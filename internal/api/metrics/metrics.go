// Package metrics defines and registers all custom Prometheus metrics
// for the parcel delivery platform. It is the single source of truth
// for metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parcel"

// ── Shipment lifecycle ────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts newly created shipments.
// Label:
//   - package_type: "standard", "express", "fragile", or "oversized"
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by package type.",
	},
	[]string{"package_type"},
)

// TransitionsTotal counts status transitions that committed.
// Label:
//   - status: the new shipment status (e.g. "in_transit")
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of shipment status transitions applied.",
	},
	[]string{"status"},
)

// TransitionErrorsTotal counts rejected or failed transitions.
// Label:
//   - reason: short failure description (e.g. "regression", "unknown_status", "credit_failed")
var TransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_errors_total",
		Help:      "Total number of shipment status transitions that failed.",
	},
	[]string{"reason"},
)

// SettlementsTotal counts exactly-once delivery settlements.
var SettlementsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Total number of delivery settlements (partner credit + COD completion).",
	},
)

// CancellationsTotal counts cancellations.
// Label:
//   - picked_up: "true" when the earnings protection applied
var CancellationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cancellations_total",
		Help:      "Total number of shipment cancellations, by pickup state.",
	},
	[]string{"picked_up"},
)

// RefundRequestsTotal counts refund workflow actions.
// Label:
//   - action: "requested", "withdrawn", "approved", or "rejected"
var RefundRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refund_requests_total",
		Help:      "Total number of refund workflow actions.",
	},
	[]string{"action"},
)

// ── Assignment ────────────────────────────────────────────────────────────────

// AssignmentsTotal counts auto-assignment outcomes.
// Label:
//   - result: "assigned" or "unassigned"
var AssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_total",
		Help:      "Total number of auto-assignment attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Notifications ─────────────────────────────────────────────────────────────

// NotificationsTotal counts dispatched outbox notifications.
// Labels:
//   - kind: "email" or "sms"
//   - result: "sent", "failed", or "dropped"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of outbox notifications dispatched, by kind and result.",
	},
	[]string{"kind", "result"},
)

// NotificationQueueDepth tracks pending outbox entries per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", ...)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
