package ports

import (
	"context"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// StatusUpdateInput is the DTO for a courier/admin status update.
// Status and Location are both optional; absent fields keep their
// current values.
type StatusUpdateInput struct {
	TrackingID  string
	Status      string
	Location    string
	Description string
	UpdatedBy   string
}

// TransitionEngine validates and applies shipment status changes and
// derives their side effects (delivery settlement, COD completion).
type TransitionEngine interface {
	ApplyStatusUpdate(ctx context.Context, input StatusUpdateInput) (*domain.Shipment, error)
}

// CancelInput carries a sender's cancellation request.
type CancelInput struct {
	TrackingID string
	Actor      string // authenticated sender email
	Reason     string
}

// CancellationEngine applies cancellation rules including the partial
// earnings protection for partners already in motion.
type CancellationEngine interface {
	Cancel(ctx context.Context, input CancelInput) (*domain.Shipment, error)
}

// RefundRequestInput carries the customer's refund request. Everything
// beyond TrackingID and Actor is additive metadata; the minimum correct
// contract is ownership + delivered-only + not-already-refunded.
type RefundRequestInput struct {
	TrackingID     string
	Actor          string
	Reason         string
	Category       string
	Description    string
	RefundMethod   string
	Urgency        string
	ExpectedAmount float64
	EvidenceImages []string
}

// RefundDecisionInput is the admin approval/rejection of a pending
// refund request.
type RefundDecisionInput struct {
	TrackingID string
	Actor      string
	Approve    bool
	Note       string
}

// RefundWorkflow manages refund request -> admin decision ->
// payment-state reconciliation.
type RefundWorkflow interface {
	Request(ctx context.Context, input RefundRequestInput) (*domain.Shipment, error)
	// Withdraw reverts a pending refund request; idempotent against a
	// non-pending refund (fails with domain.ErrRefundNotPending).
	Withdraw(ctx context.Context, trackingID, actor string) (*domain.Shipment, error)
	// Resolve is admin-only and idempotent against an already refunded
	// shipment.
	Resolve(ctx context.Context, input RefundDecisionInput) (*domain.Shipment, error)
}

// ComplaintInput carries a service complaint from sender or receiver.
type ComplaintInput struct {
	TrackingID  string
	Actor       string
	Category    string
	Severity    string
	Rating      int
	Description string
}

// ComplaintWorkflow records and routes service complaints.
type ComplaintWorkflow interface {
	Submit(ctx context.Context, input ComplaintInput) (string, error)
}
