package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// PaymentSessionService bridges online-payment session creation and
// verification through a short-TTL persisted pending order, so any
// instance can serve the verify call. The gateway itself is an external
// collaborator; this service only owns the order hand-off.
type PaymentSessionService struct {
	store     ports.PendingOrderStore
	shipments ports.ShipmentService
	logger    zerolog.Logger
}

func NewPaymentSessionService(
	store ports.PendingOrderStore,
	shipments ports.ShipmentService,
	logger zerolog.Logger,
) *PaymentSessionService {
	return &PaymentSessionService{store: store, shipments: shipments, logger: logger}
}

// CreateSession prices the order, parks it in the pending store, and
// returns the session id and amount for the gateway checkout.
func (s *PaymentSessionService) CreateSession(ctx context.Context, input ports.CreateShipmentInput) (string, float64, error) {
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
	amount := domain.ComputeCost(pkg, input.Origin, input.Destination)

	sessionID := uuid.NewString()
	if err := s.store.Put(ctx, sessionID, input); err != nil {
		return "", 0, fmt.Errorf("payment session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("sender", input.SenderEmail).
		Float64("amount", amount).
		Msg("payment session created")

	return sessionID, amount, nil
}

// VerifyAndCreate consumes the pending order (single use) and creates
// the shipment with payment already completed.
func (s *PaymentSessionService) VerifyAndCreate(ctx context.Context, sessionID, actor string) (*domain.Shipment, error) {
	order, err := s.store.Take(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("payment verify: %w", err)
	}
	if order.SenderEmail != actor {
		return nil, domain.ErrForbidden
	}

	order.PaymentCompleted = true
	shipment, err := s.shipments.Create(ctx, *order)
	if err != nil {
		return nil, fmt.Errorf("payment verify: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("tracking_id", shipment.TrackingID).
		Msg("payment verified, shipment created")

	return shipment, nil
}
