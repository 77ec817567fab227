package billing

import (
	"math"
	"time"
)

// BillStatus enumerates invoice payment states.
type BillStatus string

const (
	StatusPaid    BillStatus = "Paid"
	StatusPartial BillStatus = "Partial"
	StatusPending BillStatus = "Pending"
)

// paidTolerance absorbs cent-level rounding when deciding whether a bill is
// settled.
const paidTolerance = 0.01

// DeriveStatus computes the bill status from its balance and advance.
func DeriveStatus(balance, advancePaid float64) BillStatus {
	switch {
	case math.Abs(balance) < paidTolerance:
		return StatusPaid
	case advancePaid > 0:
		return StatusPartial
	default:
		return StatusPending
	}
}

// Bill is the persisted invoice. Customer fields are snapshotted at sale
// time; later customer edits never rewrite issued bills.
type Bill struct {
	ID            int64      `json:"id"`
	TenantID      int64      `json:"-"`
	BillNumber    string     `json:"bill_number"`
	UUID          string     `json:"uuid"`
	CustomerID    int64      `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CustomerTRN   *string    `json:"customer_trn,omitempty"`
	BillDate      time.Time  `json:"bill_date"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
	TrialDate     *time.Time `json:"trial_date,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	Subtotal      float64    `json:"subtotal"`
	VATAmount     float64    `json:"vat_amount"`
	TotalAmount   float64    `json:"total_amount"`
	AdvancePaid   float64    `json:"advance_paid"`
	BalanceAmount float64    `json:"balance_amount"`
	Status        BillStatus `json:"status"`
	MasterID      *int64     `json:"master_id,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Items         []BillItem `json:"items,omitempty"`
}

// BillItem is one product line within a bill. ProductName and Rate are
// snapshots; ProductID may be nil for free-form lines.
type BillItem struct {
	ID              int64   `json:"id"`
	BillID          int64   `json:"bill_id"`
	TenantID        int64   `json:"-"`
	ProductID       *int64  `json:"product_id,omitempty"`
	ProductName     string  `json:"product_name"`
	Quantity        float64 `json:"quantity"`
	Rate            float64 `json:"rate"`
	DiscountPercent float64 `json:"discount_percent"`
	VATAmount       float64 `json:"vat_amount"`
	TotalAmount     float64 `json:"total_amount"`
	Notes           *string `json:"notes,omitempty"`
}
