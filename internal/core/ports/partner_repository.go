package ports

import (
	"context"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

// EarningsCredit is applied as one atomic increment on the partner
// document. Amount only ever adds to total_earnings; counters are
// deltas. ActiveDelta releases the in-flight slot on completion or
// cancellation.
type EarningsCredit struct {
	Amount      float64
	Completed   int
	Cancelled   int
	TotalDelta  int
	ActiveDelta int
}

// PartnerRepository defines persistence operations for delivery partners.
type PartnerRepository interface {
	Create(ctx context.Context, p *domain.Partner) error
	FindByID(ctx context.Context, id string) (*domain.Partner, error)
	FindByEmail(ctx context.Context, email string) (*domain.Partner, error)
	List(ctx context.Context, status domain.PartnerStatus) ([]*domain.Partner, error)
	// ListEligible returns approved, active, online partners ordered by
	// active_deliveries ascending, then id ascending.
	ListEligible(ctx context.Context) ([]*domain.Partner, error)
	// CreditEarnings applies the credit in a single atomic update.
	CreditEarnings(ctx context.Context, partnerID string, credit EarningsCredit) error
	// ReserveSlot bumps active_deliveries while assigning.
	ReserveSlot(ctx context.Context, partnerID string) error
	SetStatus(ctx context.Context, partnerID string, status domain.PartnerStatus) error
	SetAvailability(ctx context.Context, partnerID string, online bool) error
}
