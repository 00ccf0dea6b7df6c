package ports

import (
	"context"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// RegisterPartnerInput carries a partner registration request. New
// partners start in pending status until an admin approves them.
type RegisterPartnerInput struct {
	Name        string
	Email       string
	Phone       string
	VehicleType string
}

// PartnerService defines partner management use-cases.
type PartnerService interface {
	Register(ctx context.Context, input RegisterPartnerInput) (*domain.Partner, error)
	SetStatus(ctx context.Context, partnerID string, status string) (*domain.Partner, error)
	SetAvailability(ctx context.Context, partnerID string, online bool) (*domain.Partner, error)
	List(ctx context.Context, status string) ([]*domain.Partner, error)
}
