package settings

// ShopSettings holds per-tenant billing configuration. Defaults apply when
// the tenant has no stored row yet.
type ShopSettings struct {
	TenantID          int64   `json:"-"`
	ShopName          string  `json:"shop_name"`
	IncludeVATInPrice bool    `json:"include_vat_in_price"`
	VATPercent        float64 `json:"vat_percent"`
	CurrencyCode      string  `json:"currency_code"`
	CurrencySymbol    string  `json:"currency_symbol"`
}

// Defaults returns the settings used for tenants that never saved any.
func Defaults(tenantID int64) ShopSettings {
	return ShopSettings{
		TenantID:          tenantID,
		IncludeVATInPrice: false,
		VATPercent:        5.00,
		CurrencyCode:      "AED",
		CurrencySymbol:    "AED",
	}
}
