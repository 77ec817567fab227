package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the tenant product catalog.
type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Product, error)
	List(ctx context.Context, tenantID int64, activeOnly bool) ([]Product, error)
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

const productColumns = `id, tenant_id, type_id, product_name, rate, barcode, is_active, created_at`

func (r *repository) Get(ctx context.Context, tenantID, id int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	p, err := scanProduct(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, tenantID int64, activeOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY product_name ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var typeID *int64
	var barcode *string
	if err := row.Scan(&p.ID, &p.TenantID, &typeID, &p.Name, &p.Rate, &barcode, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.TypeID = typeID
	p.Barcode = barcode
	return &p, nil
}
