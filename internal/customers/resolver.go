package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/hisab-pos/hisab/internal/shared"
)

// ResolveInput is the raw customer payload carried by a bill or an explicit
// customer create.
type ResolveInput struct {
	TenantID        int64
	Name            string
	Phone           string
	CountryCode     string
	CustomerType    CustomerType
	BusinessName    string
	BusinessAddress string
	TRN             string
	City            string
	Area            string
	Email           string
	Address         string
}

// Resolve normalizes the phone and upserts the customer on the
// (tenant_id, phone) natural key. It runs against whatever Repository the
// caller provides, so the transactor can bind it to the bill transaction.
func Resolve(ctx context.Context, repo Repository, in ResolveInput) (id int64, created bool, err error) {
	phone, err := NormalizePhone(in.Phone, in.CountryCode)
	if err != nil {
		return 0, false, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Walk-in Customer"
	}

	ctype := in.CustomerType
	if ctype == "" {
		ctype = TypeIndividual
	}
	if ctype != TypeIndividual && ctype != TypeBusiness {
		return 0, false, fmt.Errorf("%w: unknown customer type %q", shared.ErrValidation, in.CustomerType)
	}
	if ctype == TypeBusiness && strings.TrimSpace(in.BusinessName) == "" {
		return 0, false, fmt.Errorf("%w: business customers require a business name", shared.ErrValidation)
	}

	c := Customer{
		TenantID:        in.TenantID,
		Name:            name,
		Phone:           phone,
		CustomerType:    ctype,
		BusinessName:    optional(in.BusinessName),
		BusinessAddress: optional(in.BusinessAddress),
		TRN:             optional(in.TRN),
		City:            optional(in.City),
		Area:            optional(in.Area),
		Email:           optional(in.Email),
		Address:         optional(in.Address),
	}

	id, created, err = repo.Upsert(ctx, c)
	if err != nil {
		return 0, false, fmt.Errorf("upsert customer: %w", err)
	}
	return id, created, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
