package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// ComplaintService implements ports.ComplaintWorkflow. Complaints are
// an append-only side channel keyed by shipment; they never touch the
// status machine.
type ComplaintService struct {
	shipments ports.ShipmentRepository
	partners  ports.PartnerRepository
	outbox    ports.NotificationQueue
	log       zerolog.Logger
}

func NewComplaintService(
	shipments ports.ShipmentRepository,
	partners ports.PartnerRepository,
	outbox ports.NotificationQueue,
	log zerolog.Logger,
) *ComplaintService {
	return &ComplaintService{shipments: shipments, partners: partners, outbox: outbox, log: log}
}

func (s *ComplaintService) Submit(ctx context.Context, in ports.ComplaintInput) (string, error) {
	shipment, err := s.shipments.FindByTrackingID(ctx, in.TrackingID, "")
	if err != nil {
		return "", fmt.Errorf("complaint: %w", err)
	}

	if !shipment.InvolvedParty(in.Actor) {
		return "", domain.ErrForbidden
	}

	now := time.Now().UTC()
	complaint := domain.Complaint{
		ID:          uuid.NewString(),
		Category:    in.Category,
		Severity:    in.Severity,
		Rating:      in.Rating,
		Description: in.Description,
		Status:      domain.ComplaintOpen,
		CreatedBy:   in.Actor,
		CreatedAt:   now,
	}
	audit := domain.StatusAudit{
		Status:    shipment.Status,
		Timestamp: now,
		Note:      "complaint filed: " + in.Category,
		UpdatedBy: in.Actor,
	}
	if err := s.shipments.AddComplaint(ctx, in.TrackingID, complaint, audit); err != nil {
		return "", fmt.Errorf("complaint: %w", err)
	}

	s.log.Info().
		Str("tracking_id", in.TrackingID).
		Str("complaint_id", complaint.ID).
		Str("category", in.Category).
		Str("severity", in.Severity).
		Msg("complaint submitted")

	s.outbox.Enqueue(domain.Notification{
		Kind:       domain.NotifyEmail,
		TrackingID: in.TrackingID,
		To:         in.Actor,
		Subject:    "Complaint received for " + in.TrackingID,
		Body:       "Your complaint has been recorded. Reference: " + complaint.ID,
	})
	if shipment.AssignedPartner != "" {
		if partner, perr := s.partners.FindByID(ctx, shipment.AssignedPartner); perr != nil {
			s.log.Warn().Err(perr).Str("partner_id", shipment.AssignedPartner).Msg("partner lookup for complaint notice failed")
		} else if partner.Email != "" {
			s.outbox.Enqueue(domain.Notification{
				Kind:       domain.NotifyEmail,
				TrackingID: in.TrackingID,
				To:         partner.Email,
				Subject:    "Complaint filed on shipment " + in.TrackingID,
				Body:       "A service complaint was filed for a shipment assigned to you.",
			})
		}
	}

	return complaint.ID, nil
}
