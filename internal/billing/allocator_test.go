package billing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	numbers  []string
	taken    map[string]bool
	scanErr  error
	probeErr error
}

func (p *fakeProbe) BillNumbersForDay(ctx context.Context, tenantID int64, prefix string) ([]string, error) {
	if p.scanErr != nil {
		return nil, p.scanErr
	}
	return p.numbers, nil
}

func (p *fakeProbe) BillNumberExists(ctx context.Context, tenantID int64, number string) (bool, error) {
	if p.probeErr != nil {
		return false, p.probeErr
	}
	return p.taken[number], nil
}

func TestAllocateBillNumberFirstOfDay(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	probe := &fakeProbe{}

	number, fellBack, err := AllocateBillNumber(context.Background(), probe, 1, day)
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Equal(t, "BILL-20260315-001", number)
}

func TestAllocateBillNumberContinuesSequence(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	probe := &fakeProbe{
		numbers: []string{"BILL-20260315-001", "BILL-20260315-007", "BILL-20260315-003"},
	}

	number, fellBack, err := AllocateBillNumber(context.Background(), probe, 1, day)
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Equal(t, "BILL-20260315-008", number)
}

func TestAllocateBillNumberSkipsMalformedSuffixes(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	probe := &fakeProbe{
		numbers: []string{"BILL-20260315-002", "BILL-20260315-XYZ", "BILL-20260314-099"},
	}

	number, _, err := AllocateBillNumber(context.Background(), probe, 1, day)
	require.NoError(t, err)
	require.Equal(t, "BILL-20260315-003", number)
}

func TestAllocateBillNumberProbesPastCollisions(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	probe := &fakeProbe{
		numbers: []string{"BILL-20260315-004"},
		taken: map[string]bool{
			"BILL-20260315-005": true,
			"BILL-20260315-006": true,
		},
	}

	number, fellBack, err := AllocateBillNumber(context.Background(), probe, 1, day)
	require.NoError(t, err)
	require.False(t, fellBack)
	require.Equal(t, "BILL-20260315-007", number)
}

func TestAllocateBillNumberFallsBackUnderContention(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	taken := make(map[string]bool)
	for i := 1; i < 100; i++ {
		taken["BILL-20260315-"+padSeq(i)] = true
	}
	probe := &fakeProbe{taken: taken}

	number, fellBack, err := AllocateBillNumber(context.Background(), probe, 1, day)
	require.NoError(t, err)
	require.True(t, fellBack)
	require.True(t, strings.HasPrefix(number, "BILL-20260315-"))
	suffix := strings.TrimPrefix(number, "BILL-20260315-")
	require.Len(t, suffix, 4)
}

func TestAllocateBillNumberPropagatesScanError(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	probe := &fakeProbe{scanErr: errors.New("connection reset")}

	_, _, err := AllocateBillNumber(context.Background(), probe, 1, day)
	require.Error(t, err)
}

func padSeq(i int) string {
	s := []byte{'0', '0', '0'}
	for pos := 2; pos >= 0 && i > 0; pos-- {
		s[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(s)
}
