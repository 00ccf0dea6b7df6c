package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// AssignmentService implements ports.AssignmentEngine with a
// deterministic least-loaded policy: among approved, active, online
// partners, pick the one with the fewest in-flight deliveries; ties
// break on the smallest partner id.
type AssignmentService struct {
	shipments ports.ShipmentRepository
	partners  ports.PartnerRepository
	logger    zerolog.Logger
}

func NewAssignmentService(
	shipments ports.ShipmentRepository,
	partners ports.PartnerRepository,
	logger zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{shipments: shipments, partners: partners, logger: logger}
}

// AutoAssign selects a partner for the shipment and records the
// assignment on both aggregates. Returns domain.ErrNoPartnerEligible
// when nobody qualifies; the shipment then stays pending for later
// manual or polled assignment.
func (s *AssignmentService) AutoAssign(ctx context.Context, shipment *domain.Shipment) (*domain.Partner, error) {
	candidates, err := s.partners.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("auto-assign: %w", err)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoPartnerEligible
	}

	// Repository returns candidates pre-sorted by load then id; double
	// sorting here would hide a broken query, so trust the contract.
	chosen := candidates[0]

	now := time.Now().UTC()
	change := ports.StatusChange{
		Status:      domain.StatusAssigned,
		Location:    shipment.CurrentLocation,
		Description: "partner assigned",
		UpdatedBy:   "system",
		At:          now,
	}
	if err := s.shipments.AssignPartner(ctx, shipment.TrackingID, chosen.ID, change); err != nil {
		return nil, fmt.Errorf("auto-assign: %w", err)
	}
	if err := s.partners.ReserveSlot(ctx, chosen.ID); err != nil {
		// The assignment itself is committed; a failed counter bump is
		// logged and corrected by the next settlement.
		s.logger.Warn().Err(err).Str("partner_id", chosen.ID).Msg("failed to reserve partner slot")
	}

	s.logger.Info().
		Str("tracking_id", shipment.TrackingID).
		Str("partner_id", chosen.ID).
		Int("active_deliveries", chosen.ActiveDeliveries).
		Msg("partner auto-assigned")

	return chosen, nil
}
