package billing

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisab-pos/hisab/internal/customers"
	"github.com/hisab-pos/hisab/internal/employees"
	"github.com/hisab-pos/hisab/internal/loyalty"
	"github.com/hisab-pos/hisab/internal/platform/db"
	"github.com/hisab-pos/hisab/internal/settings"
)

// Stores bundles every repository the invoice transactor touches, all bound
// to the same transaction so the bill, customer upsert and loyalty side
// effects commit or roll back as one.
type Stores struct {
	Bills     Repository
	Customers customers.Repository
	Loyalty   loyalty.Repository
	Settings  settings.Repository
	Employees employees.Repository
}

// TxRunner runs a function against transaction-bound stores.
type TxRunner interface {
	// Run uses RepeatableRead; payment updates pair it with row locks.
	Run(ctx context.Context, fn func(ctx context.Context, st Stores) error) error
	// RunSerializable is the isolation level for bill creation.
	RunSerializable(ctx context.Context, fn func(ctx context.Context, st Stores) error) error
}

type pgxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the pgx-backed TxRunner.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return pgxRunner{pool: pool}
}

func (r pgxRunner) Run(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, txStores(tx))
	})
}

func (r pgxRunner) RunSerializable(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, txStores(tx))
	})
}

func txStores(tx pgx.Tx) Stores {
	return Stores{
		Bills:     NewTxRepository(tx),
		Customers: customers.NewTxRepository(tx),
		Loyalty:   loyalty.NewTxRepository(tx),
		Settings:  settings.NewTxRepository(tx),
		Employees: employees.NewTxRepository(tx),
	}
}
