// Package shared holds the monetary arithmetic used by billing. All amounts
// are rounded half-up to two decimals after computation.
package shared

import (
	"fmt"
	"math"

	coreshared "github.com/hisab-pos/hisab/internal/shared"
)

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineTotals computes gross, discount, net, per-line VAT and per-line total
// for one cart line. In VAT-inclusive mode the line carries no VAT of its
// own: the bill-level decomposition extracts VAT from the entered total.
func LineTotals(rate, quantity, discountPercent, vatPercent float64, vatInclusive bool) (gross, discount, net, vatAmount, lineTotal float64, err error) {
	if rate < 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: rate must not be negative", coreshared.ErrValidation)
	}
	if quantity <= 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: quantity must be positive", coreshared.ErrValidation)
	}
	if discountPercent < 0 || discountPercent > 100 {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: discount must be between 0 and 100", coreshared.ErrValidation)
	}

	gross = rate * quantity
	discount = gross * discountPercent / 100
	net = Round2(gross - discount)

	if vatInclusive {
		return Round2(gross), Round2(discount), net, 0, net, nil
	}

	vatAmount = Round2(net * vatPercent / 100)
	lineTotal = Round2(net + vatAmount)
	return Round2(gross), Round2(discount), net, vatAmount, lineTotal, nil
}

// BillTotals is the result of decomposing a caller-supplied subtotal under
// one of the two VAT inclusion modes.
type BillTotals struct {
	Subtotal      float64
	VATAmount     float64
	TotalAmount   float64
	BalanceAmount float64
}

// DecomposeBill splits subtotalInput into subtotal, VAT and total.
//
// VAT-inclusive mode treats subtotalInput as the VAT-inclusive grand total;
// VAT-exclusive mode treats it as the pre-tax subtotal. Balance is total
// minus the advance in either mode.
func DecomposeBill(subtotalInput, advancePaid, vatPercent float64, vatInclusive bool) BillTotals {
	var t BillTotals
	if vatInclusive {
		t.TotalAmount = Round2(subtotalInput)
		t.Subtotal = Round2(subtotalInput / (1 + vatPercent/100))
		t.VATAmount = Round2(t.TotalAmount - t.Subtotal)
	} else {
		t.Subtotal = Round2(subtotalInput)
		t.VATAmount = Round2(subtotalInput * vatPercent / 100)
		t.TotalAmount = Round2(t.Subtotal + t.VATAmount)
	}
	t.BalanceAmount = Round2(t.TotalAmount - advancePaid)
	return t
}
