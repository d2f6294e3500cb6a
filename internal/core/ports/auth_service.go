package ports

import (
	"context"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.Identity, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.Identity, error)
	// ValidateToken asks the backend whether the held token is still
	// accepted. It never returns error detail.
	ValidateToken(ctx context.Context) bool
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*domain.Identity, error)
	Restore(ctx context.Context) (*domain.Identity, error)
}
