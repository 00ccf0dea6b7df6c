package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/api/metrics"
	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// trackingIDAttempts bounds the retries on a tracking-id collision
	// against the unique index.
	trackingIDAttempts = 3
)

type ShipmentService struct {
	repo     ports.ShipmentRepository
	assigner ports.AssignmentEngine
	outbox   ports.NotificationQueue
	logger   zerolog.Logger
}

func NewShipmentService(
	repo ports.ShipmentRepository,
	assigner ports.AssignmentEngine,
	outbox ports.NotificationQueue,
	logger zerolog.Logger,
) *ShipmentService {
	return &ShipmentService{repo: repo, assigner: assigner, outbox: outbox, logger: logger}
}

// Create prices the package, persists the shipment, and attempts a
// synchronous partner assignment. Assignment and notifications are best
// effort: a shipment without a partner stays pending and creation still
// succeeds.
func (s *ShipmentService) Create(ctx context.Context, input ports.CreateShipmentInput) (*domain.Shipment, error) {
	pkg := domain.PackageDetails{
		Type:     domain.PackageType(input.Package.Type),
		WeightKg: input.Package.WeightKg,
		Dimensions: domain.Dimensions{
			LengthCm: input.Package.Dimensions.LengthCm,
			WidthCm:  input.Package.Dimensions.WidthCm,
			HeightCm: input.Package.Dimensions.HeightCm,
		},
		DeclaredValue: input.Package.DeclaredValue,
	}

	now := time.Now().UTC()
	revenue := domain.ComputeCost(pkg, input.Origin, input.Destination)

	payment := domain.Payment{
		Method: domain.PaymentMethod(input.PaymentMethod),
		Status: domain.PaymentPending,
		Amount: revenue,
	}
	if input.PaymentCompleted {
		payment.Status = domain.PaymentCompleted
		paidAt := now
		payment.PaidAt = &paidAt
	}

	shipment := &domain.Shipment{
		TrackingID: generateTrackingID(),
		Sender: domain.Party{
			Name:    input.Sender.Name,
			Email:   input.SenderEmail, // never trust client-supplied sender email
			Phone:   input.Sender.Phone,
			Address: input.Sender.Address,
		},
		Receiver: domain.Party{
			Name:    input.Receiver.Name,
			Email:   input.Receiver.Email,
			Phone:   input.Receiver.Phone,
			Address: input.Receiver.Address,
		},
		Origin:          input.Origin,
		Destination:     input.Destination,
		Package:         pkg,
		Status:          domain.StatusPending,
		CurrentLocation: input.Origin,
		Revenue:         revenue,
		Payment:         payment,
		History: []domain.HistoryEntry{
			{Status: domain.StatusPending, Location: input.Origin, Timestamp: now, Description: "shipment created"},
		},
		StatusHistory: []domain.StatusAudit{
			{Status: domain.StatusPending, Location: input.Origin, Timestamp: now, UpdatedBy: input.SenderEmail},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.create(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Msg("failed to create shipment")
		return nil, err
	}

	metrics.ShipmentsCreatedTotal.WithLabelValues(string(pkg.Type)).Inc()
	s.logger.Info().
		Str("tracking_id", shipment.TrackingID).
		Str("sender", input.SenderEmail).
		Float64("revenue", revenue).
		Msg("shipment created")

	// Auto-assignment runs inside creation but never fails it.
	if partner, err := s.assigner.AutoAssign(ctx, shipment); err != nil {
		metrics.AssignmentsTotal.WithLabelValues("unassigned").Inc()
		s.logger.Warn().Err(err).Str("tracking_id", shipment.TrackingID).Msg("auto-assignment skipped")
	} else {
		metrics.AssignmentsTotal.WithLabelValues("assigned").Inc()
		assignedAt := time.Now().UTC()
		shipment.AssignedPartner = partner.ID
		shipment.Status = domain.StatusAssigned
		shipment.History = append(shipment.History, domain.HistoryEntry{
			Status: domain.StatusAssigned, Location: shipment.CurrentLocation, Timestamp: assignedAt, Description: "partner assigned",
		})
		shipment.StatusHistory = append(shipment.StatusHistory, domain.StatusAudit{
			Status: domain.StatusAssigned, Location: shipment.CurrentLocation, Timestamp: assignedAt, UpdatedBy: "system",
		})
	}

	s.outbox.Enqueue(domain.Notification{
		Kind:       domain.NotifyEmail,
		TrackingID: shipment.TrackingID,
		To:         shipment.Sender.Email,
		Subject:    "Shipment " + shipment.TrackingID + " created",
		Body:       fmt.Sprintf("Your shipment to %s is booked. Amount: %.2f", shipment.Destination, revenue),
	})

	return shipment, nil
}

// create inserts the shipment, regenerating the tracking id when the
// random 32-bit id collides with an existing document.
func (s *ShipmentService) create(ctx context.Context, shipment *domain.Shipment) error {
	var err error
	for attempt := 0; attempt < trackingIDAttempts; attempt++ {
		if err = s.repo.Create(ctx, shipment); !errors.Is(err, domain.ErrConflict) {
			return err
		}
		s.logger.Warn().
			Str("tracking_id", shipment.TrackingID).
			Msg("tracking id collision, regenerating")
		shipment.TrackingID = generateTrackingID()
	}
	return err
}

// Verify is the public tracking lookup by tracking id.
func (s *ShipmentService) Verify(ctx context.Context, trackingID string) (*domain.Shipment, error) {
	return s.repo.FindByTrackingID(ctx, trackingID, "")
}

// Get enforces ownership for customers; admins and partners are scoped
// by the repository query instead.
func (s *ShipmentService) Get(ctx context.Context, trackingID, role, email string) (*domain.Shipment, error) {
	owner := ""
	if role == domain.RoleCustomer {
		owner = email
	}
	return s.repo.FindByTrackingID(ctx, trackingID, owner)
}

// List returns a page of shipments. Customers only see their own.
func (s *ShipmentService) List(ctx context.Context, input ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}

	filter := ports.ListShipmentsFilter{
		Status:    input.Status,
		Search:    input.Search,
		DateFrom:  input.DateFrom,
		DateTo:    input.DateTo,
		PartnerID: input.PartnerID,
		Page:      page,
		Limit:     limit,
	}
	if input.Role == domain.RoleCustomer {
		filter.SenderEmail = input.SenderEmail
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListShipmentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Delete hard-deletes a shipment. Admin-only; data cleanup, not part of
// the customer lifecycle.
func (s *ShipmentService) Delete(ctx context.Context, trackingID string) error {
	if err := s.repo.Delete(ctx, trackingID); err != nil {
		return err
	}
	s.logger.Info().Str("tracking_id", trackingID).Msg("shipment deleted")
	return nil
}

// generateTrackingID returns a tracking id in the format PT-XXXXXXXX.
func generateTrackingID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: use current nanoseconds
		return fmt.Sprintf("PT-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("PT-%08X", b)
}
