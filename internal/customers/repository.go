package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists tenant customers.
type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Customer, error)
	GetByPhone(ctx context.Context, tenantID int64, phone string) (*Customer, error)
	List(ctx context.Context, tenantID int64, search string) ([]Customer, error)
	// Upsert inserts the customer or, on a (tenant_id, phone) conflict,
	// overwrites the profile fields last-write-wins and reactivates the row.
	// created reports whether a new row was inserted.
	Upsert(ctx context.Context, c Customer) (id int64, created bool, err error)
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

// NewTxRepository builds a Repository bound to an open transaction.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx}
}

const customerColumns = `
	id, tenant_id, name, phone, customer_type, business_name, business_address,
	trn, city, area, email, address, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Customer, error) {
	query := `SELECT` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(ctx, query, tenantID, id)
}

func (r *repository) GetByPhone(ctx context.Context, tenantID int64, phone string) (*Customer, error) {
	query := `SELECT` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND phone = $2`
	return r.scanOne(ctx, query, tenantID, phone)
}

func (r *repository) scanOne(ctx context.Context, query string, args ...interface{}) (*Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.CustomerType,
		&c.BusinessName, &c.BusinessAddress, &c.TRN, &c.City, &c.Area,
		&c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, search string) ([]Customer, error) {
	query := `SELECT` + customerColumns + ` FROM customers WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if search != "" {
		query += ` AND (name ILIKE $2 OR phone LIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.CustomerType,
			&c.BusinessName, &c.BusinessAddress, &c.TRN, &c.City, &c.Area,
			&c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, c Customer) (int64, bool, error) {
	// xmax = 0 distinguishes a fresh insert from a conflict update.
	const query = `
		INSERT INTO customers (
			tenant_id, name, phone, customer_type, business_name, business_address,
			trn, city, area, email, address, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		ON CONFLICT (tenant_id, phone) DO UPDATE SET
			name = EXCLUDED.name,
			customer_type = EXCLUDED.customer_type,
			business_name = EXCLUDED.business_name,
			business_address = EXCLUDED.business_address,
			trn = EXCLUDED.trn,
			city = EXCLUDED.city,
			area = EXCLUDED.area,
			is_active = true,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted`

	var id int64
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		c.TenantID, c.Name, c.Phone, c.CustomerType, c.BusinessName, c.BusinessAddress,
		c.TRN, c.City, c.Area, c.Email, c.Address,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}
	return id, inserted, nil
}
