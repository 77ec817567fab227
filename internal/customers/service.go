package customers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hisab-pos/hisab/internal/loyalty"
	"github.com/hisab-pos/hisab/internal/shared"
)

// Service exposes the customer reads and the standalone create path used by
// the HTTP surface. Bill creation resolves customers through Resolve inside
// its own transaction instead.
type Service struct {
	repo        Repository
	loyaltyRepo loyalty.Repository
	logger      *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, loyaltyRepo loyalty.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, loyaltyRepo: loyaltyRepo, logger: logger}
}

// Get returns one tenant customer.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return c, nil
}

// List returns tenant customers, optionally filtered by a name/phone search.
func (s *Service) List(ctx context.Context, tenantID int64, search string) ([]Customer, error) {
	return s.repo.List(ctx, tenantID, search)
}

// Create upserts a customer from an explicit API call and enrolls newcomers
// in loyalty. Enrollment failure is downgraded to a warning: the worker's
// nightly backfill picks the customer up later.
func (s *Service) Create(ctx context.Context, in ResolveInput) (*Customer, error) {
	id, created, err := Resolve(ctx, s.repo, in)
	if err != nil {
		return nil, err
	}

	if created {
		if _, err := loyalty.EnsureEnrolled(ctx, s.loyaltyRepo, in.TenantID, id, time.Now()); err != nil {
			s.logger.Warn("loyalty enrollment failed",
				slog.Int64("tenant_id", in.TenantID),
				slog.Int64("customer_id", id),
				slog.Any("error", err),
			)
		}
	}

	return s.Get(ctx, in.TenantID, id)
}
