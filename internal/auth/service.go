package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/hisab-pos/hisab/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials for a tenant account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Tenant, error) {
	tenant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !tenant.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return tenant, nil
}
