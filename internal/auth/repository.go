package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisab-pos/hisab/internal/shared"
)

// Repository looks up tenant accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Tenant, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Tenant, error) {
	const query = `
		SELECT id, name, email, password_hash, is_active, created_at
		FROM tenants
		WHERE lower(email) = lower($1)`

	var t Tenant
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
