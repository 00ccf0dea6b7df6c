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

// DedupChecker abstracts the idempotency store (Redis) for repeated
// status updates.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, trackingID, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, trackingID, status string, ts time.Time) error
}

// TransitionService implements ports.TransitionEngine. It owns the
// delivery settlement side effects: the one-shot partner credit and the
// COD auto-completion.
type TransitionService struct {
	shipments ports.ShipmentRepository
	partners  ports.PartnerRepository
	dedup     DedupChecker
	outbox    ports.NotificationQueue
	log       zerolog.Logger
}

func NewTransitionService(
	shipments ports.ShipmentRepository,
	partners ports.PartnerRepository,
	dedup DedupChecker,
	outbox ports.NotificationQueue,
	log zerolog.Logger,
) *TransitionService {
	return &TransitionService{
		shipments: shipments,
		partners:  partners,
		dedup:     dedup,
		outbox:    outbox,
		log:       log,
	}
}

// ApplyStatusUpdate validates and applies a status/location change.
// Status and location are both optional; a location-only update keeps
// the current status. Notification dispatch is enqueued after the write
// commits and can never roll it back.
func (s *TransitionService) ApplyStatusUpdate(ctx context.Context, in ports.StatusUpdateInput) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByTrackingID(ctx, in.TrackingID, "")
	if err != nil {
		return nil, fmt.Errorf("status update: %w", err)
	}

	newStatus := shipment.Status
	if in.Status != "" {
		newStatus, err = domain.ParseStatus(in.Status)
		if err != nil {
			metrics.TransitionErrorsTotal.WithLabelValues("unknown_status").Inc()
			return nil, err
		}
	}
	// Cancellation carries earnings and payment rules of its own and
	// only goes through the cancellation engine.
	if newStatus == domain.StatusCancelled {
		metrics.TransitionErrorsTotal.WithLabelValues("cancel_via_update").Inc()
		return nil, fmt.Errorf("status update: %w: use the cancellation operation", domain.ErrInvalidTransition)
	}
	if !shipment.Status.CanAdvanceTo(newStatus) {
		metrics.TransitionErrorsTotal.WithLabelValues("regression").Inc()
		return nil, fmt.Errorf("status update: %w (from %s to %s)", domain.ErrInvalidTransition, shipment.Status, newStatus)
	}

	now := time.Now().UTC()

	// Idempotency: silently absorb an exact retry of the same update.
	if isDup, dupErr := s.dedup.IsDuplicate(ctx, in.TrackingID, string(newStatus), now); dupErr != nil {
		s.log.Warn().Err(dupErr).Str("tracking_id", in.TrackingID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		s.log.Debug().Str("tracking_id", in.TrackingID).Str("status", string(newStatus)).Msg("duplicate status update skipped")
		return shipment, nil
	}
	if markErr := s.dedup.Mark(ctx, in.TrackingID, string(newStatus), now); markErr != nil {
		s.log.Warn().Err(markErr).Str("tracking_id", in.TrackingID).Msg("failed to set dedup key")
	}

	location := in.Location
	if location == "" {
		location = shipment.CurrentLocation
	}

	if newStatus == domain.StatusDelivered {
		if err := s.settleDelivery(ctx, shipment, location, in.UpdatedBy, now); err != nil {
			return nil, err
		}
	} else {
		change := ports.StatusChange{
			Status:        newStatus,
			Location:      location,
			Description:   in.Description,
			UpdatedBy:     in.UpdatedBy,
			At:            now,
			StampPickedUp: newStatus == domain.StatusPickedUp && shipment.PickedUpAt == nil,
		}
		if change.StampPickedUp && shipment.AssignedPartner != "" {
			// Record the projected cut at pickup so cancellation
			// protection has a value to work from.
			change.PartnerEarnings = domain.DeliveryEarnings(shipment.Revenue)
		}
		if err := s.shipments.ApplyStatusChange(ctx, in.TrackingID, change); err != nil {
			metrics.TransitionErrorsTotal.WithLabelValues("update_failed").Inc()
			return nil, fmt.Errorf("status update: %w", err)
		}
		if change.StampPickedUp {
			shipment.PickedUpAt = &now
			shipment.PartnerEarnings = change.PartnerEarnings
		}
	}

	statusChanged := newStatus != shipment.Status
	locationChanged := location != shipment.CurrentLocation

	audit := domain.StatusAudit{Status: newStatus, Location: location, Timestamp: now, Note: in.Description, UpdatedBy: in.UpdatedBy}
	shipment.Status = newStatus
	shipment.CurrentLocation = location
	shipment.UpdatedAt = now
	shipment.History = append(shipment.History, domain.HistoryEntry{
		Status: newStatus, Location: location, Timestamp: now, Description: in.Description,
	})
	shipment.StatusHistory = append(shipment.StatusHistory, audit)

	metrics.TransitionsTotal.WithLabelValues(string(newStatus)).Inc()
	s.log.Info().
		Str("tracking_id", in.TrackingID).
		Str("status", string(newStatus)).
		Str("location", location).
		Str("updated_by", in.UpdatedBy).
		Msg("status updated")

	s.notify(shipment, statusChanged, locationChanged)

	return shipment, nil
}

// settleDelivery performs the exactly-once delivered transition. The
// repository guard (delivered_at unset) and the terminal-status check
// together make retries and concurrent requests safe: the second writer
// sees either a terminal status or a non-matching guard.
func (s *TransitionService) settleDelivery(ctx context.Context, shipment *domain.Shipment, location, actor string, now time.Time) error {
	earnings := 0.0
	if shipment.AssignedPartner != "" {
		earnings = domain.DeliveryEarnings(shipment.Revenue)
	}
	completePayment := shipment.Payment.Method == domain.PaymentCOD &&
		shipment.Payment.Status == domain.PaymentPending

	settlement := ports.DeliverySettlement{
		At:              now,
		Location:        location,
		UpdatedBy:       actor,
		PartnerEarnings: earnings,
		CompletePayment: completePayment,
	}
	if err := s.shipments.SettleDelivery(ctx, shipment.TrackingID, settlement); err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("settlement_failed").Inc()
		return fmt.Errorf("delivery settlement: %w", err)
	}

	if shipment.AssignedPartner != "" {
		credit := ports.EarningsCredit{
			Amount:      earnings,
			Completed:   1,
			TotalDelta:  1,
			ActiveDelta: -1,
		}
		if err := s.partners.CreditEarnings(ctx, shipment.AssignedPartner, credit); err != nil {
			// The shipment is settled; a missed credit corrupts the
			// earnings invariant and must be surfaced loudly.
			metrics.TransitionErrorsTotal.WithLabelValues("credit_failed").Inc()
			s.log.Error().Err(err).
				Str("tracking_id", shipment.TrackingID).
				Str("partner_id", shipment.AssignedPartner).
				Float64("amount", earnings).
				Msg("partner credit failed after settlement")
			return fmt.Errorf("delivery settlement: credit partner: %w", err)
		}
	}

	shipment.DeliveredAt = &now
	shipment.PartnerEarnings = earnings
	if completePayment {
		shipment.Payment.Status = domain.PaymentCompleted
		paidAt := now
		shipment.Payment.PaidAt = &paidAt
	}

	metrics.SettlementsTotal.Inc()
	s.log.Info().
		Str("tracking_id", shipment.TrackingID).
		Str("partner_id", shipment.AssignedPartner).
		Float64("partner_earnings", earnings).
		Bool("cod_completed", completePayment).
		Msg("delivery settled")

	return nil
}

// notify enqueues best-effort email/SMS for a committed transition.
func (s *TransitionService) notify(shipment *domain.Shipment, statusChanged, locationChanged bool) {
	if !statusChanged && !locationChanged {
		return
	}

	subject := fmt.Sprintf("Shipment %s: %s", shipment.TrackingID, shipment.Status)
	body := fmt.Sprintf("Your shipment is now %s at %s.", shipment.Status, shipment.CurrentLocation)
	for _, to := range []string{shipment.Sender.Email, shipment.Receiver.Email} {
		if to == "" {
			continue
		}
		s.outbox.Enqueue(domain.Notification{
			Kind:       domain.NotifyEmail,
			TrackingID: shipment.TrackingID,
			To:         to,
			Subject:    subject,
			Body:       body,
		})
	}

	if shipment.Status == domain.StatusOutForDelivery || shipment.Status == domain.StatusDelivered {
		if shipment.Receiver.Phone != "" {
			s.outbox.Enqueue(domain.Notification{
				Kind:       domain.NotifySMS,
				TrackingID: shipment.TrackingID,
				To:         shipment.Receiver.Phone,
				Status:     shipment.Status,
			})
		}
	}
}
