package products

import "time"

// Product is a sellable catalog entry. Bill items snapshot the name and rate
// at sale time, so catalog edits never rewrite history.
type Product struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	TypeID    *int64    `json:"type_id,omitempty"`
	Name      string    `json:"product_name"`
	Rate      float64   `json:"rate"`
	Barcode   *string   `json:"barcode,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
