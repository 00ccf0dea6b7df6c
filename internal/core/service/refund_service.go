package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/api/metrics"
	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// adminRefundTopic is the admin real-time channel for refund events.
const adminRefundTopic = "admin:refunds"

// RefundService implements ports.RefundWorkflow.
type RefundService struct {
	shipments ports.ShipmentRepository
	partners  ports.PartnerRepository
	publisher ports.Publisher
	outbox    ports.NotificationQueue
	log       zerolog.Logger
}

func NewRefundService(
	shipments ports.ShipmentRepository,
	partners ports.PartnerRepository,
	publisher ports.Publisher,
	outbox ports.NotificationQueue,
	log zerolog.Logger,
) *RefundService {
	return &RefundService{shipments: shipments, partners: partners, publisher: publisher, outbox: outbox, log: log}
}

// refundEvent is the payload published on the admin channel.
type refundEvent struct {
	TrackingID     string  `json:"tracking_id"`
	RequestID      string  `json:"request_id"`
	Action         string  `json:"action"`
	Category       string  `json:"category,omitempty"`
	ExpectedAmount float64 `json:"expected_amount,omitempty"`
}

// Request records a refund request on a delivered shipment. The
// minimum contract is: ownership check, delivered-only check,
// not-already-refunded check, payment-status mutation. All metadata is
// additive.
func (s *RefundService) Request(ctx context.Context, in ports.RefundRequestInput) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByTrackingID(ctx, in.TrackingID, "")
	if err != nil {
		return nil, fmt.Errorf("refund request: %w", err)
	}

	if !shipment.OwnedBy(in.Actor) {
		return nil, domain.ErrForbidden
	}
	if shipment.Status != domain.StatusDelivered {
		return nil, domain.ErrRefundNotEligible
	}
	switch shipment.Payment.Status {
	case domain.PaymentRefunded, domain.PaymentRefundRequested:
		return nil, domain.ErrDuplicateRefund
	}

	now := time.Now().UTC()
	payment := shipment.Payment
	payment.Status = domain.PaymentRefundRequested
	payment.RefundRequestID = uuid.NewString()
	payment.RefundReason = in.Reason
	payment.RefundCategory = in.Category
	payment.RefundMethod = in.RefundMethod
	payment.RefundDescription = in.Description
	payment.RefundUrgency = in.Urgency
	payment.ExpectedRefundAmount = in.ExpectedAmount
	payment.RefundRequestedAt = &now
	payment.EvidenceImages = in.EvidenceImages

	audit := domain.StatusAudit{
		Status:    shipment.Status,
		Timestamp: now,
		Note:      "refund requested: " + in.Reason,
		UpdatedBy: in.Actor,
	}
	update := ports.PaymentUpdate{
		ExpectStatus: shipment.Payment.Status, // guard: status unchanged since read
		Payment:      payment,
		Audit:        audit,
	}
	if err := s.shipments.UpdatePayment(ctx, in.TrackingID, update); err != nil {
		return nil, fmt.Errorf("refund request: %w", err)
	}

	shipment.Payment = payment
	shipment.StatusHistory = append(shipment.StatusHistory, audit)
	shipment.UpdatedAt = now

	metrics.RefundRequestsTotal.WithLabelValues("requested").Inc()
	s.log.Info().
		Str("tracking_id", in.TrackingID).
		Str("request_id", payment.RefundRequestID).
		Str("category", in.Category).
		Msg("refund requested")

	// Admin channel and partner/customer notifications are both best
	// effort; the refund request is already committed.
	if err := s.publisher.Publish(ctx, adminRefundTopic, refundEvent{
		TrackingID:     in.TrackingID,
		RequestID:      payment.RefundRequestID,
		Action:         "requested",
		Category:       in.Category,
		ExpectedAmount: in.ExpectedAmount,
	}); err != nil {
		s.log.Warn().Err(err).Str("tracking_id", in.TrackingID).Msg("admin refund event publish failed")
	}

	s.outbox.Enqueue(domain.Notification{
		Kind:       domain.NotifyEmail,
		TrackingID: in.TrackingID,
		To:         shipment.Sender.Email,
		Subject:    "Refund request received for " + in.TrackingID,
		Body:       "Your refund request is being reviewed. Reference: " + payment.RefundRequestID,
	})
	if shipment.AssignedPartner != "" {
		if partner, perr := s.partners.FindByID(ctx, shipment.AssignedPartner); perr != nil {
			s.log.Warn().Err(perr).Str("partner_id", shipment.AssignedPartner).Msg("partner lookup for refund notice failed")
		} else if partner.Email != "" {
			s.outbox.Enqueue(domain.Notification{
				Kind:       domain.NotifyEmail,
				TrackingID: in.TrackingID,
				To:         partner.Email,
				Subject:    "Refund requested on delivery " + in.TrackingID,
				Body:       "The customer filed a refund request for a shipment you delivered.",
			})
		}
	}

	return shipment, nil
}

// clearRefundRequest strips the request metadata recorded by Request.
// Applied when a request is withdrawn or rejected so the payment
// sub-document no longer carries an in-flight refund.
func clearRefundRequest(p *domain.Payment) {
	p.RefundRequestID = ""
	p.RefundReason = ""
	p.RefundCategory = ""
	p.RefundMethod = ""
	p.RefundDescription = ""
	p.RefundUrgency = ""
	p.ExpectedRefundAmount = 0
	p.RefundRequestedAt = nil
	p.EvidenceImages = nil
}

// Withdraw reverts a pending refund request back to completed payment.
func (s *RefundService) Withdraw(ctx context.Context, trackingID, actor string) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByTrackingID(ctx, trackingID, "")
	if err != nil {
		return nil, fmt.Errorf("refund withdraw: %w", err)
	}

	if !shipment.OwnedBy(actor) {
		return nil, domain.ErrForbidden
	}
	if shipment.Payment.Status != domain.PaymentRefundRequested {
		return nil, domain.ErrRefundNotPending
	}

	now := time.Now().UTC()
	payment := shipment.Payment
	payment.Status = domain.PaymentCompleted
	clearRefundRequest(&payment)

	audit := domain.StatusAudit{
		Status:    shipment.Status,
		Timestamp: now,
		Note:      "refund request withdrawn",
		UpdatedBy: actor,
	}
	update := ports.PaymentUpdate{
		ExpectStatus: domain.PaymentRefundRequested,
		Payment:      payment,
		Audit:        audit,
	}
	if err := s.shipments.UpdatePayment(ctx, trackingID, update); err != nil {
		return nil, fmt.Errorf("refund withdraw: %w", err)
	}

	shipment.Payment = payment
	shipment.StatusHistory = append(shipment.StatusHistory, audit)
	shipment.UpdatedAt = now

	metrics.RefundRequestsTotal.WithLabelValues("withdrawn").Inc()
	s.log.Info().Str("tracking_id", trackingID).Msg("refund request withdrawn")

	return shipment, nil
}

// Resolve is the admin decision on a pending refund request. Approving
// an already refunded shipment is a no-op error (idempotency guard).
func (s *RefundService) Resolve(ctx context.Context, in ports.RefundDecisionInput) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByTrackingID(ctx, in.TrackingID, "")
	if err != nil {
		return nil, fmt.Errorf("refund resolve: %w", err)
	}

	if shipment.Payment.Status == domain.PaymentRefunded {
		return nil, domain.ErrDuplicateRefund
	}
	if shipment.Payment.Status != domain.PaymentRefundRequested {
		return nil, domain.ErrRefundNotPending
	}

	now := time.Now().UTC()
	payment := shipment.Payment
	note := "refund rejected"
	action := "rejected"
	if in.Approve {
		payment.Status = domain.PaymentRefunded
		payment.RefundedAt = &now
		note = "refund approved"
		action = "approved"
	} else {
		// A rejected request is closed, not parked: the request
		// metadata is cleared so the document no longer reads as
		// having an in-flight refund. The audit trail keeps the
		// decision.
		payment.Status = domain.PaymentCompleted
		clearRefundRequest(&payment)
	}
	if in.Note != "" {
		note = note + ": " + in.Note
	}

	audit := domain.StatusAudit{
		Status:    shipment.Status,
		Timestamp: now,
		Note:      note,
		UpdatedBy: in.Actor,
	}
	update := ports.PaymentUpdate{
		ExpectStatus: domain.PaymentRefundRequested,
		Payment:      payment,
		Audit:        audit,
	}
	if err := s.shipments.UpdatePayment(ctx, in.TrackingID, update); err != nil {
		return nil, fmt.Errorf("refund resolve: %w", err)
	}

	shipment.Payment = payment
	shipment.StatusHistory = append(shipment.StatusHistory, audit)
	shipment.UpdatedAt = now

	metrics.RefundRequestsTotal.WithLabelValues(action).Inc()
	s.log.Info().Str("tracking_id", in.TrackingID).Str("action", action).Msg("refund resolved")

	s.outbox.Enqueue(domain.Notification{
		Kind:       domain.NotifyEmail,
		TrackingID: in.TrackingID,
		To:         shipment.Sender.Email,
		Subject:    "Refund update for " + in.TrackingID,
		Body:       note,
	})

	return shipment, nil
}
