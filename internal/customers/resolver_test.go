package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hisab-pos/hisab/internal/shared"
)

type memRepo struct {
	customers map[int64]Customer
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{customers: make(map[int64]Customer)}
}

func (r *memRepo) Get(ctx context.Context, tenantID, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	copied := c
	return &copied, nil
}

func (r *memRepo) GetByPhone(ctx context.Context, tenantID int64, phone string) (*Customer, error) {
	for _, c := range r.customers {
		if c.TenantID == tenantID && c.Phone == phone {
			copied := c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memRepo) List(ctx context.Context, tenantID int64, search string) ([]Customer, error) {
	var out []Customer
	for _, c := range r.customers {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) Upsert(ctx context.Context, c Customer) (int64, bool, error) {
	// The SQL upsert always (re)activates the row.
	c.IsActive = true
	if existing, _ := r.GetByPhone(ctx, c.TenantID, c.Phone); existing != nil {
		c.ID = existing.ID
		r.customers[c.ID] = c
		return c.ID, false, nil
	}
	r.nextID++
	c.ID = r.nextID
	r.customers[c.ID] = c
	return c.ID, true, nil
}

func TestResolveCreatesWalkIn(t *testing.T) {
	repo := newMemRepo()

	id, created, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID: 1,
		Phone:    "0501234567",
	})
	require.NoError(t, err)
	require.True(t, created)

	c := repo.customers[id]
	require.Equal(t, "Walk-in Customer", c.Name)
	require.Equal(t, TypeIndividual, c.CustomerType)
	require.Equal(t, "0501234567", c.Phone)
	require.True(t, c.IsActive)
}

func TestResolveMatchesOnNormalizedPhone(t *testing.T) {
	repo := newMemRepo()

	first, created, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID: 1, Name: "Ahmed", Phone: "050 123 4567",
	})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID: 1, Name: "Ahmed Ali", Phone: "050-123-4567",
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first, second)

	// Last write wins on profile fields.
	require.Equal(t, "Ahmed Ali", repo.customers[second].Name)
}

func TestResolveBusinessRequiresName(t *testing.T) {
	repo := newMemRepo()

	_, _, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID:     1,
		Phone:        "0501234567",
		CustomerType: TypeBusiness,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	id, created, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID:     1,
		Phone:        "0501234567",
		CustomerType: TypeBusiness,
		BusinessName: "Al Noor Trading",
		TRN:          "100000000000003",
	})
	require.NoError(t, err)
	require.True(t, created)

	c := repo.customers[id]
	require.NotNil(t, c.BusinessName)
	require.Equal(t, "Al Noor Trading", *c.BusinessName)
	require.NotNil(t, c.TRN)
}

func TestResolveRejectsUnknownType(t *testing.T) {
	repo := newMemRepo()

	_, _, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID:     1,
		Phone:        "0501234567",
		CustomerType: "Corporate",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestResolveBlankOptionalFieldsStayNil(t *testing.T) {
	repo := newMemRepo()

	id, _, err := Resolve(context.Background(), repo, ResolveInput{
		TenantID: 1,
		Phone:    "0501234567",
		City:     "  ",
	})
	require.NoError(t, err)

	c := repo.customers[id]
	require.Nil(t, c.City)
	require.Nil(t, c.Email)
}
