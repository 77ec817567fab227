package customers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hisab-pos/hisab/internal/shared"
)

func TestNormalizePhoneStripsSeparators(t *testing.T) {
	got, err := NormalizePhone("050-123 45.67", "")
	require.NoError(t, err)
	require.Equal(t, "0501234567", got)
}

func TestNormalizePhoneAppliesCountryCode(t *testing.T) {
	got, err := NormalizePhone("501234567", "971")
	require.NoError(t, err)
	require.Equal(t, "+971501234567", got)
}

func TestNormalizePhoneStripsDuplicateCountryCode(t *testing.T) {
	got, err := NormalizePhone("971501234567", "971")
	require.NoError(t, err)
	require.Equal(t, "+971501234567", got)
}

func TestNormalizePhoneCountryCodeSeparators(t *testing.T) {
	got, err := NormalizePhone("501234567", "+971")
	require.NoError(t, err)
	require.Equal(t, "+971501234567", got)
}

func TestNormalizePhoneRejectsEmpty(t *testing.T) {
	_, err := NormalizePhone("  -- ", "")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestNormalizePhoneRejectsLength(t *testing.T) {
	_, err := NormalizePhone("12345678", "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = NormalizePhone("1234567890123456", "")
	require.ErrorIs(t, err, shared.ErrValidation)
}
