package loyalty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	config    Config
	tiers     []Tier
	accounts  map[int64]CustomerLoyalty
	txns      []Transaction
	nextID    int64
	usedCodes map[string]bool
}

func newMemRepo(tenantID int64) *memRepo {
	return &memRepo{
		config:    DefaultConfig(tenantID),
		tiers:     DefaultTiers(),
		accounts:  make(map[int64]CustomerLoyalty),
		usedCodes: make(map[string]bool),
	}
}

func (r *memRepo) GetConfig(ctx context.Context, tenantID int64) (Config, error) {
	return r.config, nil
}

func (r *memRepo) Tiers(ctx context.Context, tenantID int64) ([]Tier, error) {
	return r.tiers, nil
}

func (r *memRepo) GetByCustomer(ctx context.Context, tenantID, customerID int64) (*CustomerLoyalty, error) {
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.CustomerID == customerID {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetByCustomerForUpdate(ctx context.Context, tenantID, customerID int64) (*CustomerLoyalty, error) {
	return r.GetByCustomer(ctx, tenantID, customerID)
}

func (r *memRepo) Enroll(ctx context.Context, cl CustomerLoyalty) (int64, error) {
	if existing, _ := r.GetByCustomer(ctx, cl.TenantID, cl.CustomerID); existing != nil {
		return existing.ID, nil
	}
	r.nextID++
	cl.ID = r.nextID
	r.accounts[cl.ID] = cl
	return cl.ID, nil
}

func (r *memRepo) ReferralCodeExists(ctx context.Context, tenantID int64, code string) (bool, error) {
	return r.usedCodes[code], nil
}

func (r *memRepo) InsertTransaction(ctx context.Context, txn Transaction) error {
	r.txns = append(r.txns, txn)
	return nil
}

func (r *memRepo) ApplyAccrual(ctx context.Context, tenantID, loyaltyID, points int64, spent float64, purchaseDate time.Time) error {
	a, ok := r.accounts[loyaltyID]
	if !ok {
		return errors.New("no such account")
	}
	a.TotalPoints += points
	a.AvailablePoints += points
	a.LifetimePoints += points
	a.TotalPurchases++
	a.TotalSpent += spent
	a.LastPurchaseDate = &purchaseDate
	r.accounts[loyaltyID] = a
	return nil
}

func (r *memRepo) ListTransactions(ctx context.Context, tenantID, loyaltyID int64, limit int) ([]Transaction, error) {
	var out []Transaction
	for _, t := range r.txns {
		if t.TenantID == tenantID && t.LoyaltyID == loyaltyID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) UpdateTier(ctx context.Context, tenantID, loyaltyID int64, tier TierLevel) error {
	a, ok := r.accounts[loyaltyID]
	if !ok {
		return errors.New("no such account")
	}
	a.TierLevel = tier
	r.accounts[loyaltyID] = a
	return nil
}

func (r *memRepo) ListForTierReview(ctx context.Context, tenantID int64) ([]CustomerLoyalty, error) {
	var out []CustomerLoyalty
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) CustomerIDsWithoutAccount(ctx context.Context, tenantID int64) ([]int64, error) {
	return nil, nil
}

func (r *memRepo) TenantIDs(ctx context.Context) ([]int64, error) {
	return []int64{r.config.TenantID}, nil
}

func enroll(t *testing.T, repo *memRepo, customerID int64, tier TierLevel) int64 {
	t.Helper()
	id, err := repo.Enroll(context.Background(), CustomerLoyalty{
		TenantID: 1, CustomerID: customerID, TierLevel: tier, ReferralCode: "TESTCODE", IsActive: true,
	})
	require.NoError(t, err)
	return id
}

func TestAccrueBronzeBase(t *testing.T) {
	repo := newMemRepo(1)
	id := enroll(t, repo, 7, TierBronze)

	points, err := Accrue(context.Background(), repo, AccrualInput{
		TenantID: 1, CustomerID: 7, BillID: 3, BillNumber: "BILL-20260315-001",
		TotalAmount: 210.40, Date: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(210), points)

	a := repo.accounts[id]
	require.Equal(t, int64(210), a.LifetimePoints)
	require.Equal(t, int64(1), a.TotalPurchases)
	require.InDelta(t, 210.40, a.TotalSpent, 0.001)

	require.Len(t, repo.txns, 1)
	require.Equal(t, TxnEarned, repo.txns[0].Type)
	require.Equal(t, "Points earned from bill #BILL-20260315-001", repo.txns[0].Description)
	require.NotNil(t, repo.txns[0].BillID)
	require.Equal(t, int64(3), *repo.txns[0].BillID)
}

func TestAccrueAppliesTierMultiplier(t *testing.T) {
	repo := newMemRepo(1)
	enroll(t, repo, 7, TierPlatinum)

	points, err := Accrue(context.Background(), repo, AccrualInput{
		TenantID: 1, CustomerID: 7, BillID: 3, BillNumber: "BILL-20260315-001",
		TotalAmount: 100.50, Date: time.Now(),
	})
	require.NoError(t, err)
	// floor(floor(100.50) * 2.0) = 200
	require.Equal(t, int64(200), points)
}

func TestAccrueUnknownCustomerEarnsNothing(t *testing.T) {
	repo := newMemRepo(1)

	points, err := Accrue(context.Background(), repo, AccrualInput{
		TenantID: 1, CustomerID: 7, BillID: 3, BillNumber: "X", TotalAmount: 100, Date: time.Now(),
	})
	require.NoError(t, err)
	require.Zero(t, points)
	require.Empty(t, repo.txns)
}

func TestAccrueDisabledConfig(t *testing.T) {
	repo := newMemRepo(1)
	repo.config.Enabled = false
	enroll(t, repo, 7, TierBronze)

	points, err := Accrue(context.Background(), repo, AccrualInput{
		TenantID: 1, CustomerID: 7, BillID: 3, BillNumber: "X", TotalAmount: 100, Date: time.Now(),
	})
	require.NoError(t, err)
	require.Zero(t, points)
}

func TestAccrueZeroPointsWritesNoLedger(t *testing.T) {
	repo := newMemRepo(1)
	enroll(t, repo, 7, TierBronze)

	points, err := Accrue(context.Background(), repo, AccrualInput{
		TenantID: 1, CustomerID: 7, BillID: 3, BillNumber: "X", TotalAmount: 0.40, Date: time.Now(),
	})
	require.NoError(t, err)
	require.Zero(t, points)
	require.Empty(t, repo.txns)
}

func TestEnsureEnrolledCreatesBronzeAccount(t *testing.T) {
	repo := newMemRepo(1)
	now := time.Now()

	id, err := EnsureEnrolled(context.Background(), repo, 1, 7, now)
	require.NoError(t, err)

	a := repo.accounts[id]
	require.Equal(t, TierBronze, a.TierLevel)
	require.Len(t, a.ReferralCode, 8)
	require.True(t, a.IsActive)

	again, err := EnsureEnrolled(context.Background(), repo, 1, 7, now)
	require.NoError(t, err)
	require.Equal(t, id, again)
	require.Len(t, repo.accounts, 1)
}

func TestTierForPoints(t *testing.T) {
	tiers := DefaultTiers()

	require.Equal(t, TierBronze, TierForPoints(tiers, 0))
	require.Equal(t, TierBronze, TierForPoints(tiers, 999))
	require.Equal(t, TierSilver, TierForPoints(tiers, 1000))
	require.Equal(t, TierGold, TierForPoints(tiers, 19999))
	require.Equal(t, TierPlatinum, TierForPoints(tiers, 20000))
}
