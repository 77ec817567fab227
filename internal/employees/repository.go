package employees

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads tenant employees.
type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Employee, error)
	List(ctx context.Context, tenantID int64) ([]Employee, error)
	// DefaultMaster returns the first active employee ordered by name, or
	// nil when the tenant has none.
	DefaultMaster(ctx context.Context, tenantID int64) (*Employee, error)
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

const employeeColumns = `id, tenant_id, name, COALESCE(phone, ''), COALESCE(position, ''), is_active, created_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = $1 AND id = $2`
	var e Employee
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&e.ID, &e.TenantID, &e.Name, &e.Phone, &e.Position, &e.IsActive, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) List(ctx context.Context, tenantID int64) ([]Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = $1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.Phone, &e.Position, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) DefaultMaster(ctx context.Context, tenantID int64) (*Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE tenant_id = $1 AND is_active
		ORDER BY name ASC
		LIMIT 1`
	var e Employee
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&e.ID, &e.TenantID, &e.Name, &e.Phone, &e.Position, &e.IsActive, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
