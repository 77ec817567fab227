package billing

// CreateBillRequest is the POST /bills payload.
type CreateBillRequest struct {
	Bill  CreateBillHeader    `json:"bill" validate:"required"`
	Items []CreateBillItemReq `json:"items" validate:"required,min=1,dive"`
}

// CreateBillHeader carries the bill-level fields of a create request. Dates
// use YYYY-MM-DD.
type CreateBillHeader struct {
	BillNumber      string  `json:"bill_number,omitempty"`
	BillDate        string  `json:"bill_date,omitempty"`
	DeliveryDate    string  `json:"delivery_date,omitempty"`
	TrialDate       string  `json:"trial_date,omitempty"`
	PaymentMethod   string  `json:"payment_method" validate:"omitempty,oneof=Cash Card 'Bank Transfer' Other"`
	CustomerName    string  `json:"customer_name"`
	CustomerPhone   string  `json:"customer_phone" validate:"required"`
	CountryCode     string  `json:"country_code,omitempty"`
	CustomerTRN     string  `json:"customer_trn,omitempty"`
	CustomerCity    string  `json:"customer_city,omitempty"`
	CustomerArea    string  `json:"customer_area,omitempty"`
	CustomerType    string  `json:"customer_type,omitempty" validate:"omitempty,oneof=Individual Business"`
	BusinessName    string  `json:"business_name,omitempty"`
	BusinessAddress string  `json:"business_address,omitempty"`
	Subtotal        float64 `json:"subtotal" validate:"gte=0"`
	AdvancePaid     float64 `json:"advance_paid" validate:"gte=0"`
	MasterID        *int64  `json:"master_id,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// CreateBillItemReq is one cart line of a create request.
type CreateBillItemReq struct {
	ProductID       *int64  `json:"product_id,omitempty"`
	ProductName     string  `json:"product_name" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	Rate            float64 `json:"rate" validate:"gte=0"`
	DiscountPercent float64 `json:"discount" validate:"gte=0,lte=100"`
	Notes           string  `json:"notes,omitempty"`
}

// CreateBillResult is the success body of POST /bills.
type CreateBillResult struct {
	Success             bool   `json:"success"`
	BillID              int64  `json:"bill_id"`
	BillNumber          string `json:"bill_number"`
	LoyaltyPointsEarned int64  `json:"loyalty_points_earned"`
}

// UpdatePaymentRequest is the PUT /bills/{id}/payment payload.
type UpdatePaymentRequest struct {
	AmountPaid float64 `json:"amount_paid" validate:"required,gt=0"`
}
