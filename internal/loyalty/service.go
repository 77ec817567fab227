package loyalty

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service exposes loyalty reads and the maintenance passes run by the
// worker. Accrual itself lives in accrual.go because it runs inside the
// billing transaction.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Summary bundles the loyalty account with its recent ledger entries.
type Summary struct {
	Account      *CustomerLoyalty `json:"loyalty"`
	Transactions []Transaction    `json:"transactions"`
}

// CustomerSummary returns the loyalty account and recent transactions for
// one customer, or a nil account when the customer is not enrolled.
func (s *Service) CustomerSummary(ctx context.Context, tenantID, customerID int64) (Summary, error) {
	account, err := s.repo.GetByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return Summary{}, fmt.Errorf("load loyalty account: %w", err)
	}
	if account == nil {
		return Summary{}, nil
	}
	txns, err := s.repo.ListTransactions(ctx, tenantID, account.ID, 50)
	if err != nil {
		return Summary{}, fmt.Errorf("load loyalty transactions: %w", err)
	}
	return Summary{Account: account, Transactions: txns}, nil
}

// ReviewTenantTiers recomputes tier levels from lifetime points and
// backfills loyalty accounts for active customers missing one. Run nightly
// by the worker.
func (s *Service) ReviewTenantTiers(ctx context.Context, tenantID int64, now time.Time) error {
	tiers, err := s.repo.Tiers(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tiers: %w", err)
	}

	accounts, err := s.repo.ListForTierReview(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, account := range accounts {
		want := TierForPoints(tiers, account.LifetimePoints)
		if want == account.TierLevel {
			continue
		}
		if err := s.repo.UpdateTier(ctx, tenantID, account.ID, want); err != nil {
			return fmt.Errorf("update tier for loyalty %d: %w", account.ID, err)
		}
		s.logger.Info("loyalty tier updated",
			slog.Int64("tenant_id", tenantID),
			slog.Int64("loyalty_id", account.ID),
			slog.String("from", string(account.TierLevel)),
			slog.String("to", string(want)),
		)
	}

	missing, err := s.repo.CustomerIDsWithoutAccount(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list unenrolled customers: %w", err)
	}
	for _, customerID := range missing {
		if _, err := EnsureEnrolled(ctx, s.repo, tenantID, customerID, now); err != nil {
			s.logger.Warn("loyalty backfill enrollment failed",
				slog.Int64("tenant_id", tenantID),
				slog.Int64("customer_id", customerID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// TenantIDs lists active tenants for the worker's fan-out.
func (s *Service) TenantIDs(ctx context.Context) ([]int64, error) {
	return s.repo.TenantIDs(ctx)
}
