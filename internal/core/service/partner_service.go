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

// PartnerMgmtService implements ports.PartnerService: registration,
// admin approval, and availability toggling.
type PartnerMgmtService struct {
	repo   ports.PartnerRepository
	logger zerolog.Logger
}

func NewPartnerMgmtService(repo ports.PartnerRepository, logger zerolog.Logger) *PartnerMgmtService {
	return &PartnerMgmtService{repo: repo, logger: logger}
}

func (s *PartnerMgmtService) Register(ctx context.Context, in ports.RegisterPartnerInput) (*domain.Partner, error) {
	if existing, err := s.repo.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, domain.ErrUserExists
	}

	now := time.Now().UTC()
	partner := &domain.Partner{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		VehicleType: in.VehicleType,
		Status:      domain.PartnerPending,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, partner); err != nil {
		return nil, fmt.Errorf("partner register: %w", err)
	}

	s.logger.Info().Str("partner_id", partner.ID).Str("email", in.Email).Msg("partner registered")
	return partner, nil
}

func (s *PartnerMgmtService) SetStatus(ctx context.Context, partnerID, status string) (*domain.Partner, error) {
	ps := domain.PartnerStatus(status)
	switch ps {
	case domain.PartnerPending, domain.PartnerApproved, domain.PartnerRejected, domain.PartnerSuspended:
	default:
		return nil, fmt.Errorf("%w: %q is not a partner status", domain.ErrInvalidStatus, status)
	}

	if err := s.repo.SetStatus(ctx, partnerID, ps); err != nil {
		return nil, fmt.Errorf("partner status: %w", err)
	}
	s.logger.Info().Str("partner_id", partnerID).Str("status", status).Msg("partner status updated")
	return s.repo.FindByID(ctx, partnerID)
}

func (s *PartnerMgmtService) SetAvailability(ctx context.Context, partnerID string, online bool) (*domain.Partner, error) {
	if err := s.repo.SetAvailability(ctx, partnerID, online); err != nil {
		return nil, fmt.Errorf("partner availability: %w", err)
	}
	return s.repo.FindByID(ctx, partnerID)
}

func (s *PartnerMgmtService) List(ctx context.Context, status string) ([]*domain.Partner, error) {
	return s.repo.List(ctx, domain.PartnerStatus(status))
}
