package customers

import "time"

// CustomerType distinguishes retail walk-ins from business accounts.
type CustomerType string

const (
	TypeIndividual CustomerType = "Individual"
	TypeBusiness   CustomerType = "Business"
)

// Customer is a tenant-scoped customer. Phone is the natural key: the
// resolver upserts on (tenant_id, phone).
type Customer struct {
	ID              int64        `json:"id"`
	TenantID        int64        `json:"-"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	CustomerType    CustomerType `json:"customer_type"`
	BusinessName    *string      `json:"business_name,omitempty"`
	BusinessAddress *string      `json:"business_address,omitempty"`
	TRN             *string      `json:"trn,omitempty"`
	City            *string      `json:"city,omitempty"`
	Area            *string      `json:"area,omitempty"`
	Email           *string      `json:"email,omitempty"`
	Address         *string      `json:"address,omitempty"`
	IsActive        bool         `json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
