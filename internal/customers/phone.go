package customers

import (
	"fmt"
	"strings"

	"github.com/hisab-pos/hisab/internal/shared"
)

const (
	phoneMinDigits = 9
	phoneMaxDigits = 15
)

// NormalizePhone canonicalizes a raw phone entry. All separators are
// stripped; when a country code is supplied, a duplicated leading code is
// removed and the result is stored as +<code><digits>. The significant part
// must be 9 to 15 digits.
func NormalizePhone(raw, countryCode string) (string, error) {
	digits := stripNonDigits(raw)
	if digits == "" {
		return "", fmt.Errorf("%w: customer phone is required", shared.ErrValidation)
	}

	cc := stripNonDigits(countryCode)
	if cc != "" && strings.HasPrefix(digits, cc) && len(digits) > len(cc) {
		digits = digits[len(cc):]
	}

	if len(digits) < phoneMinDigits || len(digits) > phoneMaxDigits {
		return "", fmt.Errorf("%w: phone must be %d to %d digits", shared.ErrValidation, phoneMinDigits, phoneMaxDigits)
	}

	if cc != "" {
		return "+" + cc + digits, nil
	}
	return digits, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
