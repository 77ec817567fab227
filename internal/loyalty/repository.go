package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists loyalty accounts, config and the ledger.
type Repository interface {
	GetConfig(ctx context.Context, tenantID int64) (Config, error)
	Tiers(ctx context.Context, tenantID int64) ([]Tier, error)
	GetByCustomer(ctx context.Context, tenantID, customerID int64) (*CustomerLoyalty, error)
	GetByCustomerForUpdate(ctx context.Context, tenantID, customerID int64) (*CustomerLoyalty, error)
	Enroll(ctx context.Context, cl CustomerLoyalty) (int64, error)
	ReferralCodeExists(ctx context.Context, tenantID int64, code string) (bool, error)
	InsertTransaction(ctx context.Context, txn Transaction) error
	ApplyAccrual(ctx context.Context, tenantID, loyaltyID, points int64, spent float64, purchaseDate time.Time) error
	ListTransactions(ctx context.Context, tenantID, loyaltyID int64, limit int) ([]Transaction, error)
	UpdateTier(ctx context.Context, tenantID, loyaltyID int64, tier TierLevel) error
	ListForTierReview(ctx context.Context, tenantID int64) ([]CustomerLoyalty, error)
	CustomerIDsWithoutAccount(ctx context.Context, tenantID int64) ([]int64, error)
	TenantIDs(ctx context.Context) ([]int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds a Repository over a connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// NewTxRepository builds a Repository bound to an open transaction so bill
// creation and accrual commit or roll back together.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) GetConfig(ctx context.Context, tenantID int64) (Config, error) {
	const query = `
		SELECT tenant_id, enabled, points_per_aed, aed_per_point
		FROM loyalty_config
		WHERE tenant_id = $1`

	var c Config
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&c.TenantID, &c.Enabled, &c.PointsPerAED, &c.AEDPerPoint)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultConfig(tenantID), nil
		}
		return Config{}, err
	}
	return c, nil
}

func (r *repository) Tiers(ctx context.Context, tenantID int64) ([]Tier, error) {
	const query = `
		SELECT tier_level, min_lifetime_points, bonus_points_multiplier
		FROM loyalty_tiers
		WHERE tenant_id = $1
		ORDER BY min_lifetime_points ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []Tier
	for rows.Next() {
		var t Tier
		if err := rows.Scan(&t.Level, &t.MinLifetimePoints, &t.BonusMultiplier); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return DefaultTiers(), nil
	}
	return tiers, nil
}

const loyaltyColumns = `
	id, tenant_id, customer_id, tier_level, total_points, available_points,
	lifetime_points, last_purchase_date, total_purchases, total_spent,
	referral_code, join_date, is_active`

func (r *repository) GetByCustomer(ctx context.Context, tenantID, customerID int64) (*CustomerLoyalty, error) {
	query := `SELECT` + loyaltyColumns + `
		FROM customer_loyalty
		WHERE tenant_id = $1 AND customer_id = $2`
	return r.scanOne(ctx, query, tenantID, customerID)
}

func (r *repository) GetByCustomerForUpdate(ctx context.Context, tenantID, customerID int64) (*CustomerLoyalty, error) {
	query := `SELECT` + loyaltyColumns + `
		FROM customer_loyalty
		WHERE tenant_id = $1 AND customer_id = $2
		FOR UPDATE`
	return r.scanOne(ctx, query, tenantID, customerID)
}

func (r *repository) scanOne(ctx context.Context, query string, args ...interface{}) (*CustomerLoyalty, error) {
	var cl CustomerLoyalty
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&cl.ID, &cl.TenantID, &cl.CustomerID, &cl.TierLevel,
		&cl.TotalPoints, &cl.AvailablePoints, &cl.LifetimePoints,
		&cl.LastPurchaseDate, &cl.TotalPurchases, &cl.TotalSpent,
		&cl.ReferralCode, &cl.JoinDate, &cl.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cl, nil
}

func (r *repository) Enroll(ctx context.Context, cl CustomerLoyalty) (int64, error) {
	const query = `
		INSERT INTO customer_loyalty (
			tenant_id, customer_id, tier_level, total_points, available_points,
			lifetime_points, total_purchases, total_spent, referral_code,
			join_date, is_active
		) VALUES ($1, $2, $3, 0, 0, 0, 0, 0, $4, $5, true)
		ON CONFLICT (tenant_id, customer_id) DO NOTHING
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query, cl.TenantID, cl.CustomerID, cl.TierLevel, cl.ReferralCode, cl.JoinDate).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already enrolled; surface the existing account id.
			existing, lookupErr := r.GetByCustomer(ctx, cl.TenantID, cl.CustomerID)
			if lookupErr != nil {
				return 0, lookupErr
			}
			if existing == nil {
				return 0, pgx.ErrNoRows
			}
			return existing.ID, nil
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) ReferralCodeExists(ctx context.Context, tenantID int64, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM customer_loyalty WHERE tenant_id = $1 AND referral_code = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, tenantID, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) InsertTransaction(ctx context.Context, txn Transaction) error {
	const query = `
		INSERT INTO loyalty_transactions (tenant_id, loyalty_id, bill_id, transaction_type, points_amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query, txn.TenantID, txn.LoyaltyID, txn.BillID, txn.Type, txn.Points, txn.Description)
	return err
}

func (r *repository) ApplyAccrual(ctx context.Context, tenantID, loyaltyID, points int64, spent float64, purchaseDate time.Time) error {
	const query = `
		UPDATE customer_loyalty SET
			total_points = total_points + $3,
			available_points = available_points + $3,
			lifetime_points = lifetime_points + $3,
			last_purchase_date = $4,
			total_purchases = total_purchases + 1,
			total_spent = total_spent + $5,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`

	tag, err := r.db.Exec(ctx, query, tenantID, loyaltyID, points, purchaseDate, spent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repository) ListTransactions(ctx context.Context, tenantID, loyaltyID int64, limit int) ([]Transaction, error) {
	const query = `
		SELECT id, tenant_id, loyalty_id, bill_id, transaction_type, points_amount, COALESCE(description, ''), created_at
		FROM loyalty_transactions
		WHERE tenant_id = $1 AND loyalty_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, tenantID, loyaltyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.LoyaltyID, &t.BillID, &t.Type, &t.Points, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) UpdateTier(ctx context.Context, tenantID, loyaltyID int64, tier TierLevel) error {
	const query = `UPDATE customer_loyalty SET tier_level = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, loyaltyID, tier)
	return err
}

func (r *repository) ListForTierReview(ctx context.Context, tenantID int64) ([]CustomerLoyalty, error) {
	query := `SELECT` + loyaltyColumns + `
		FROM customer_loyalty
		WHERE tenant_id = $1 AND is_active`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerLoyalty
	for rows.Next() {
		var cl CustomerLoyalty
		if err := rows.Scan(
			&cl.ID, &cl.TenantID, &cl.CustomerID, &cl.TierLevel,
			&cl.TotalPoints, &cl.AvailablePoints, &cl.LifetimePoints,
			&cl.LastPurchaseDate, &cl.TotalPurchases, &cl.TotalSpent,
			&cl.ReferralCode, &cl.JoinDate, &cl.IsActive,
		); err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func (r *repository) CustomerIDsWithoutAccount(ctx context.Context, tenantID int64) ([]int64, error) {
	const query = `
		SELECT c.id
		FROM customers c
		LEFT JOIN customer_loyalty cl ON cl.tenant_id = c.tenant_id AND cl.customer_id = c.id
		WHERE c.tenant_id = $1 AND c.is_active AND cl.id IS NULL`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) TenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM tenants WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
