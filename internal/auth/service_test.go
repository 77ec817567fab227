package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hisab-pos/hisab/internal/shared"
)

type memTenantRepo struct {
	tenants map[string]*Tenant
}

func (r *memTenantRepo) FindByEmail(ctx context.Context, email string) (*Tenant, error) {
	t, ok := r.tenants[email]
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	return t, nil
}

func newTenantRepo(t *testing.T, password string, active bool) *memTenantRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &memTenantRepo{tenants: map[string]*Tenant{
		"shop@example.com": {
			ID:           1,
			Name:         "Demo Tailors",
			Email:        "shop@example.com",
			PasswordHash: string(hash),
			IsActive:     active,
		},
	}}
}

func TestAuthenticateSuccess(t *testing.T) {
	svc := NewService(newTenantRepo(t, "correct-horse", true))

	tenant, err := svc.Authenticate(context.Background(), "shop@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(1), tenant.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := NewService(newTenantRepo(t, "correct-horse", true))

	_, err := svc.Authenticate(context.Background(), "shop@example.com", "battery-staple")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(newTenantRepo(t, "correct-horse", true))

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveTenant(t *testing.T) {
	svc := NewService(newTenantRepo(t, "correct-horse", false))

	_, err := svc.Authenticate(context.Background(), "shop@example.com", "correct-horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
