package settings

import (
	"context"
	"fmt"

	"golang.org/x/text/currency"

	"github.com/hisab-pos/hisab/internal/shared"
)

// Service validates and persists shop settings.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get loads settings for the tenant, falling back to defaults.
func (s *Service) Get(ctx context.Context, tenantID int64) (ShopSettings, error) {
	return s.repo.Get(ctx, tenantID)
}

// Update validates and saves settings for the tenant.
func (s *Service) Update(ctx context.Context, tenantID int64, in ShopSettings) (ShopSettings, error) {
	if in.VATPercent < 0 || in.VATPercent > 100 {
		return ShopSettings{}, fmt.Errorf("%w: vat percent must be between 0 and 100", shared.ErrValidation)
	}
	unit, err := currency.ParseISO(in.CurrencyCode)
	if err != nil {
		return ShopSettings{}, fmt.Errorf("%w: unknown currency code %q", shared.ErrValidation, in.CurrencyCode)
	}
	in.CurrencyCode = unit.String()
	if in.CurrencySymbol == "" {
		in.CurrencySymbol = in.CurrencyCode
	}
	in.TenantID = tenantID

	if err := s.repo.Upsert(ctx, in); err != nil {
		return ShopSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return in, nil
}
