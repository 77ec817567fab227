package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes tenant shop settings.
type Repository interface {
	Get(ctx context.Context, tenantID int64) (ShopSettings, error)
	Upsert(ctx context.Context, s ShopSettings) error
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

func (r *repository) Get(ctx context.Context, tenantID int64) (ShopSettings, error) {
	const query = `
		SELECT tenant_id, COALESCE(shop_name, ''), include_vat_in_price,
		       vat_percent, currency_code, currency_symbol
		FROM shop_settings
		WHERE tenant_id = $1`

	var s ShopSettings
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&s.TenantID, &s.ShopName, &s.IncludeVATInPrice,
		&s.VATPercent, &s.CurrencyCode, &s.CurrencySymbol,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Defaults(tenantID), nil
		}
		return ShopSettings{}, err
	}
	return s, nil
}

func (r *repository) Upsert(ctx context.Context, s ShopSettings) error {
	const query = `
		INSERT INTO shop_settings (tenant_id, shop_name, include_vat_in_price, vat_percent, currency_code, currency_symbol)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE SET
			shop_name = EXCLUDED.shop_name,
			include_vat_in_price = EXCLUDED.include_vat_in_price,
			vat_percent = EXCLUDED.vat_percent,
			currency_code = EXCLUDED.currency_code,
			currency_symbol = EXCLUDED.currency_symbol,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		s.TenantID, s.ShopName, s.IncludeVATInPrice,
		s.VATPercent, s.CurrencyCode, s.CurrencySymbol,
	)
	return err
}
