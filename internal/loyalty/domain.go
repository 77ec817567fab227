package loyalty

import "time"

// TierLevel enumerates loyalty tiers.
type TierLevel string

const (
	TierBronze   TierLevel = "Bronze"
	TierSilver   TierLevel = "Silver"
	TierGold     TierLevel = "Gold"
	TierPlatinum TierLevel = "Platinum"
)

// TransactionType enumerates ledger entry kinds.
type TransactionType string

const (
	TxnEarned      TransactionType = "earned"
	TxnRedeemed    TransactionType = "redeemed"
	TxnExpired     TransactionType = "expired"
	TxnBonus       TransactionType = "bonus"
	TxnReferral    TransactionType = "referral"
	TxnBirthday    TransactionType = "birthday"
	TxnAnniversary TransactionType = "anniversary"
)

// Config holds per-tenant loyalty settings.
type Config struct {
	TenantID     int64   `json:"-"`
	Enabled      bool    `json:"enabled"`
	PointsPerAED float64 `json:"points_per_aed"`
	AEDPerPoint  float64 `json:"aed_per_point"`
}

// DefaultConfig applies when a tenant never configured loyalty.
func DefaultConfig(tenantID int64) Config {
	return Config{
		TenantID:     tenantID,
		Enabled:      true,
		PointsPerAED: 1.0,
		AEDPerPoint:  0.05,
	}
}

// Tier couples a level with its entry threshold and earn multiplier.
type Tier struct {
	Level             TierLevel `json:"tier_level"`
	MinLifetimePoints int64     `json:"min_lifetime_points"`
	BonusMultiplier   float64   `json:"bonus_points_multiplier"`
}

// DefaultTiers returns the built-in tier ladder, lowest first.
func DefaultTiers() []Tier {
	return []Tier{
		{Level: TierBronze, MinLifetimePoints: 0, BonusMultiplier: 1.0},
		{Level: TierSilver, MinLifetimePoints: 1000, BonusMultiplier: 1.25},
		{Level: TierGold, MinLifetimePoints: 5000, BonusMultiplier: 1.5},
		{Level: TierPlatinum, MinLifetimePoints: 20000, BonusMultiplier: 2.0},
	}
}

// CustomerLoyalty is the per-customer loyalty account.
type CustomerLoyalty struct {
	ID               int64      `json:"loyalty_id"`
	TenantID         int64      `json:"-"`
	CustomerID       int64      `json:"customer_id"`
	TierLevel        TierLevel  `json:"tier_level"`
	TotalPoints      int64      `json:"total_points"`
	AvailablePoints  int64      `json:"available_points"`
	LifetimePoints   int64      `json:"lifetime_points"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	TotalPurchases   int64      `json:"total_purchases"`
	TotalSpent       float64    `json:"total_spent"`
	ReferralCode     string     `json:"referral_code"`
	JoinDate         time.Time  `json:"join_date"`
	IsActive         bool       `json:"is_active"`
}

// Transaction is one append-only loyalty ledger entry.
type Transaction struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"-"`
	LoyaltyID   int64           `json:"loyalty_id"`
	BillID      *int64          `json:"bill_id,omitempty"`
	Type        TransactionType `json:"transaction_type"`
	Points      int64           `json:"points_amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
