package ports

import (
	"context"
	"time"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// PartyInput holds contact details for a sender or receiver.
type PartyInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// DimensionsInput holds package size in centimetres.
type DimensionsInput struct {
	LengthCm float64
	WidthCm  float64
	HeightCm float64
}

// PackageInput holds package details.
type PackageInput struct {
	Type          string
	WeightKg      float64
	Dimensions    DimensionsInput
	DeclaredValue float64
}

// CreateShipmentInput carries all data needed to create a new shipment.
// SenderEmail is the authenticated caller's identity and overrides
// whatever email the client supplied for the sender.
type CreateShipmentInput struct {
	Sender        PartyInput
	Receiver      PartyInput
	Origin        string
	Destination   string
	Package       PackageInput
	PaymentMethod string
	// PaymentCompleted marks the payment as already settled (online
	// payment verified through the pending-order flow).
	PaymentCompleted bool
	SenderEmail      string
}

// ListShipmentsInput carries all parameters for the list endpoint.
type ListShipmentsInput struct {
	Role        string
	SenderEmail string
	PartnerID   string
	Status      string
	Search      string
	DateFrom    time.Time
	DateTo      time.Time
	Page        int
	Limit       int
}

// ListShipmentsResult is returned by List.
type ListShipmentsResult struct {
	Items      []*domain.Shipment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ShipmentService defines creation and query use-cases. Mutating
// lifecycle operations live on the dedicated engine interfaces.
type ShipmentService interface {
	// Create prices, persists, and best-effort auto-assigns a shipment,
	// returning the freshly built aggregate (no re-read).
	Create(ctx context.Context, input CreateShipmentInput) (*domain.Shipment, error)
	// Verify is the public tracking lookup, no ownership scoping.
	Verify(ctx context.Context, trackingID string) (*domain.Shipment, error)
	// Get enforces ownership for customers; admins see everything.
	Get(ctx context.Context, trackingID, role, email string) (*domain.Shipment, error)
	List(ctx context.Context, input ListShipmentsInput) (*ListShipmentsResult, error)
	// Delete is the admin-only hard delete for data cleanup.
	Delete(ctx context.Context, trackingID string) error
}

// AssignmentEngine selects an eligible partner for a shipment.
type AssignmentEngine interface {
	// AutoAssign returns the chosen partner, or
	// domain.ErrNoPartnerEligible when nobody qualifies. Failure to
	// assign never fails shipment creation.
	AutoAssign(ctx context.Context, shipment *domain.Shipment) (*domain.Partner, error)
}
