package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/api/metrics"
	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// cancelledLocation is the sentinel stored as the shipment location on
// cancellation.
const cancelledLocation = "cancelled"

// CancellationService implements ports.CancellationEngine: ownership
// check, terminal-state rejection, partner earnings protection, and
// payment reconciliation.
type CancellationService struct {
	shipments ports.ShipmentRepository
	partners  ports.PartnerRepository
	outbox    ports.NotificationQueue
	log       zerolog.Logger
}

func NewCancellationService(
	shipments ports.ShipmentRepository,
	partners ports.PartnerRepository,
	outbox ports.NotificationQueue,
	log zerolog.Logger,
) *CancellationService {
	return &CancellationService{shipments: shipments, partners: partners, outbox: outbox, log: log}
}

func (s *CancellationService) Cancel(ctx context.Context, in ports.CancelInput) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByTrackingID(ctx, in.TrackingID, "")
	if err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}

	if !shipment.OwnedBy(in.Actor) {
		return nil, domain.ErrForbidden
	}
	if shipment.Status == domain.StatusDelivered {
		return nil, domain.ErrAlreadyDelivered
	}
	if shipment.Status == domain.StatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	now := time.Now().UTC()

	// Earnings protection: a partner already in motion keeps half the
	// delivery cut; before pickup nothing is owed. The delivery
	// settlement credit and this credit are mutually exclusive since a
	// shipment cannot be both delivered and cancelled.
	earnings := 0.0
	pickedUp := shipment.PickedUpAt != nil
	if shipment.AssignedPartner != "" && pickedUp {
		earnings = domain.CancellationCredit(shipment.PartnerEarnings)
	}

	// Payment reconciliation: charged payments are refunded, COD was
	// never charged so it is simply closed out.
	paymentStatus := domain.PaymentStatus("")
	switch {
	case shipment.Payment.Status == domain.PaymentCompleted && shipment.Payment.Method != domain.PaymentCOD:
		paymentStatus = domain.PaymentRefunded
	case shipment.Payment.Method == domain.PaymentCOD:
		paymentStatus = domain.PaymentCancelled
	case shipment.Payment.Status == domain.PaymentPending:
		paymentStatus = domain.PaymentCancelled
	}

	change := ports.CancellationChange{
		At:              now,
		Reason:          in.Reason,
		UpdatedBy:       in.Actor,
		PartnerEarnings: earnings,
		PaymentStatus:   paymentStatus,
	}
	if err := s.shipments.Cancel(ctx, in.TrackingID, change); err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}

	if shipment.AssignedPartner != "" {
		credit := ports.EarningsCredit{
			Amount:      earnings,
			Cancelled:   1,
			TotalDelta:  1,
			ActiveDelta: -1,
		}
		if err := s.partners.CreditEarnings(ctx, shipment.AssignedPartner, credit); err != nil {
			metrics.TransitionErrorsTotal.WithLabelValues("credit_failed").Inc()
			s.log.Error().Err(err).
				Str("tracking_id", in.TrackingID).
				Str("partner_id", shipment.AssignedPartner).
				Float64("amount", earnings).
				Msg("partner credit failed after cancellation")
			return nil, fmt.Errorf("cancel: credit partner: %w", err)
		}
	}

	shipment.Status = domain.StatusCancelled
	shipment.CurrentLocation = cancelledLocation
	shipment.PartnerEarnings = earnings
	shipment.UpdatedAt = now
	shipment.History = append(shipment.History, domain.HistoryEntry{
		Status: domain.StatusCancelled, Location: cancelledLocation, Timestamp: now, Description: in.Reason,
	})
	shipment.StatusHistory = append(shipment.StatusHistory, domain.StatusAudit{
		Status: domain.StatusCancelled, Location: cancelledLocation, Timestamp: now, Note: in.Reason, UpdatedBy: in.Actor,
	})
	if paymentStatus != "" {
		shipment.Payment.Status = paymentStatus
		if paymentStatus == domain.PaymentRefunded {
			refundedAt := now
			shipment.Payment.RefundedAt = &refundedAt
		}
	}

	metrics.CancellationsTotal.WithLabelValues(fmt.Sprintf("%t", pickedUp)).Inc()
	s.log.Info().
		Str("tracking_id", in.TrackingID).
		Str("actor", in.Actor).
		Bool("picked_up", pickedUp).
		Float64("partner_credit", earnings).
		Str("payment_status", string(shipment.Payment.Status)).
		Msg("shipment cancelled")

	subject := "Shipment " + in.TrackingID + " cancelled"
	for _, to := range []string{shipment.Sender.Email, shipment.Receiver.Email} {
		if to == "" {
			continue
		}
		s.outbox.Enqueue(domain.Notification{
			Kind:       domain.NotifyEmail,
			TrackingID: in.TrackingID,
			To:         to,
			Subject:    subject,
			Body:       "The shipment has been cancelled. Reason: " + in.Reason,
		})
	}

	return shipment, nil
}
