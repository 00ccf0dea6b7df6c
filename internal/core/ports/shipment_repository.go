package ports

import (
	"context"
	"time"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// ListShipmentsFilter carries all query parameters for listing shipments.
// SenderEmail is always enforced by the service layer for customers.
type ListShipmentsFilter struct {
	SenderEmail string    // empty = no filter (admin); non-empty = scoped to owner
	PartnerID   string    // optional: shipments assigned to a partner
	Status      string    // optional: filter by shipment status
	Search      string    // optional: partial match on tracking_id or receiver name
	DateFrom    time.Time // optional: created_at >= DateFrom
	DateTo      time.Time // optional: created_at <= DateTo
	Page        int       // 1-based
	Limit       int       // max rows per page (capped at 100 by service)
}

// StatusChange is applied atomically: status, location, one entry on each
// audit trail, and the one-shot picked_up_at stamp when requested.
type StatusChange struct {
	Status        domain.ShipmentStatus
	Location      string
	Description   string
	UpdatedBy     string
	At            time.Time
	StampPickedUp bool // set picked_up_at if not already set
	// PartnerEarnings is the projected delivery cut, recorded together
	// with the pickup stamp so the cancellation protection has a value
	// to halve. Only applied when StampPickedUp is true.
	PartnerEarnings float64
}

// DeliverySettlement is the exactly-once delivered transition. The
// repository must guard it with a delivered_at-is-unset check evaluated
// in the same write, so concurrent retries cannot settle twice.
type DeliverySettlement struct {
	At              time.Time
	Location        string
	UpdatedBy       string
	PartnerEarnings float64
	CompletePayment bool // COD auto-settlement: pending payment -> completed
}

// CancellationChange moves a shipment to cancelled. The repository must
// reject it when the shipment is already in a terminal state.
type CancellationChange struct {
	At              time.Time
	Reason          string
	UpdatedBy       string
	PartnerEarnings float64              // post-protection value recorded for audit
	PaymentStatus   domain.PaymentStatus // refunded, cancelled, or "" to leave unchanged
}

// PaymentUpdate replaces the payment sub-document and appends an audit
// entry, guarded by the expected current payment status.
type PaymentUpdate struct {
	ExpectStatus domain.PaymentStatus
	Payment      domain.Payment
	Audit        domain.StatusAudit
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	// FindByTrackingID retrieves a shipment. When senderEmail is
	// non-empty the query is additionally scoped to the owner.
	FindByTrackingID(ctx context.Context, trackingID, senderEmail string) (*domain.Shipment, error)
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)
	Delete(ctx context.Context, trackingID string) error

	// AssignPartner sets the partner reference and the assigned status,
	// guarded on the shipment still being unassigned and pending.
	AssignPartner(ctx context.Context, trackingID, partnerID string, change StatusChange) error
	// ApplyStatusChange appends to both audit trails and updates status
	// and location in a single write.
	ApplyStatusChange(ctx context.Context, trackingID string, change StatusChange) error
	// SettleDelivery performs the guarded delivered transition. Returns
	// domain.ErrConflict when the guard does not match (already settled
	// by a concurrent request).
	SettleDelivery(ctx context.Context, trackingID string, settlement DeliverySettlement) error
	// Cancel performs the guarded cancelled transition. Returns
	// domain.ErrConflict when the shipment reached a terminal state
	// between read and write.
	Cancel(ctx context.Context, trackingID string, change CancellationChange) error
	// UpdatePayment swaps the payment sub-document iff its status still
	// matches ExpectStatus; used by the refund workflow as its
	// idempotency guard.
	UpdatePayment(ctx context.Context, trackingID string, update PaymentUpdate) error
	// AddComplaint appends a complaint and its audit entry.
	AddComplaint(ctx context.Context, trackingID string, complaint domain.Complaint, audit domain.StatusAudit) error
}
