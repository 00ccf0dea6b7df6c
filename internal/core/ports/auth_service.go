package ports

import (
	"context"

	"github.com/parceltrack/delivery-platform/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email, role, partnerID string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
