package loyalty

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"time"
)

// AccrualInput describes the bill a customer earns points for.
type AccrualInput struct {
	TenantID    int64
	CustomerID  int64
	BillID      int64
	BillNumber  string
	TotalAmount float64
	Date        time.Time
}

// Accrue writes one earned ledger entry and bumps the customer's counters.
// The caller passes a transaction-bound Repository: accrual must commit or
// roll back together with the bill insert. Returns the points earned, or 0
// when the customer has no loyalty account.
func Accrue(ctx context.Context, repo Repository, in AccrualInput) (int64, error) {
	cfg, err := repo.GetConfig(ctx, in.TenantID)
	if err != nil {
		return 0, fmt.Errorf("load loyalty config: %w", err)
	}
	if !cfg.Enabled {
		return 0, nil
	}

	account, err := repo.GetByCustomerForUpdate(ctx, in.TenantID, in.CustomerID)
	if err != nil {
		return 0, fmt.Errorf("load loyalty account: %w", err)
	}
	if account == nil {
		return 0, nil
	}

	tiers, err := repo.Tiers(ctx, in.TenantID)
	if err != nil {
		return 0, fmt.Errorf("load tiers: %w", err)
	}

	base := math.Floor(in.TotalAmount * cfg.PointsPerAED)
	multiplier := multiplierFor(tiers, account.TierLevel)
	points := int64(math.Floor(base * multiplier))
	if points <= 0 {
		return 0, nil
	}

	txn := Transaction{
		TenantID:    in.TenantID,
		LoyaltyID:   account.ID,
		BillID:      &in.BillID,
		Type:        TxnEarned,
		Points:      points,
		Description: fmt.Sprintf("Points earned from bill #%s", in.BillNumber),
	}
	if err := repo.InsertTransaction(ctx, txn); err != nil {
		return 0, fmt.Errorf("insert loyalty transaction: %w", err)
	}
	if err := repo.ApplyAccrual(ctx, in.TenantID, account.ID, points, in.TotalAmount, in.Date); err != nil {
		return 0, fmt.Errorf("apply accrual: %w", err)
	}
	return points, nil
}

// EnsureEnrolled creates a Bronze loyalty account for the customer when one
// does not exist yet. Safe to call repeatedly.
func EnsureEnrolled(ctx context.Context, repo Repository, tenantID, customerID int64, now time.Time) (int64, error) {
	existing, err := repo.GetByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	code, err := newReferralCode(ctx, repo, tenantID)
	if err != nil {
		return 0, err
	}
	return repo.Enroll(ctx, CustomerLoyalty{
		TenantID:     tenantID,
		CustomerID:   customerID,
		TierLevel:    TierBronze,
		ReferralCode: code,
		JoinDate:     now,
		IsActive:     true,
	})
}

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newReferralCode draws 8-char codes until one is free for the tenant.
func newReferralCode(ctx context.Context, repo Repository, tenantID int64) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("referral code entropy: %w", err)
		}
		for i, b := range buf {
			buf[i] = referralAlphabet[int(b)%len(referralAlphabet)]
		}
		code := string(buf)

		exists, err := repo.ReferralCodeExists(ctx, tenantID, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("referral code space exhausted after retries")
}

func multiplierFor(tiers []Tier, level TierLevel) float64 {
	for _, t := range tiers {
		if t.Level == level {
			return t.BonusMultiplier
		}
	}
	return 1.0
}

// TierForPoints returns the highest tier whose threshold the lifetime
// points meet. Tiers must be sorted ascending by threshold.
func TierForPoints(tiers []Tier, lifetimePoints int64) TierLevel {
	level := TierBronze
	for _, t := range tiers {
		if lifetimePoints >= t.MinLifetimePoints {
			level = t.Level
		}
	}
	return level
}
