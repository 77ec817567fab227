package employees

import "time"

// Employee is a shop worker who can be attributed to a sale.
type Employee struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Position  string    `json:"position"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
