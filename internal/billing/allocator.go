package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	billNumberPrefix  = "BILL"
	allocatorAttempts = 5
)

// NumberProbe is the slice of the repository the allocator needs. It is
// satisfied by both pool- and transaction-bound repositories.
type NumberProbe interface {
	BillNumbersForDay(ctx context.Context, tenantID int64, prefix string) ([]string, error)
	BillNumberExists(ctx context.Context, tenantID int64, number string) (bool, error)
}

// AllocateBillNumber produces a BILL-YYYYMMDD-NNN candidate that does not
// yet exist for the tenant. Uniqueness under concurrency is not this
// function's job: the unique index on (tenant_id, bill_number) and the
// transactor's retry loop enforce it. After allocatorAttempts collisions it
// returns a timestamp-derived BILL-YYYYMMDD-TTTT instead of failing.
// fellBack reports whether the fallback form was used.
func AllocateBillNumber(ctx context.Context, probe NumberProbe, tenantID int64, today time.Time) (number string, fellBack bool, err error) {
	dayPrefix := fmt.Sprintf("%s-%s-", billNumberPrefix, today.Format("20060102"))

	existing, err := probe.BillNumbersForDay(ctx, tenantID, dayPrefix)
	if err != nil {
		return "", false, fmt.Errorf("scan bill numbers: %w", err)
	}

	seq := maxSequence(existing, dayPrefix) + 1
	for attempt := 0; attempt < allocatorAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%03d", dayPrefix, seq)
		exists, err := probe.BillNumberExists(ctx, tenantID, candidate)
		if err != nil {
			return "", false, fmt.Errorf("probe bill number: %w", err)
		}
		if !exists {
			return candidate, false, nil
		}
		seq++
	}

	// Heavy contention; derive a sequence from the clock instead.
	millis := time.Now().UnixMilli() % 10000
	return fmt.Sprintf("%s%04d", dayPrefix, millis), true, nil
}

// maxSequence parses the trailing integer of each number sharing dayPrefix
// and returns the highest. Malformed suffixes are ignored.
func maxSequence(numbers []string, dayPrefix string) int {
	max := 0
	for _, n := range numbers {
		suffix, ok := strings.CutPrefix(n, dayPrefix)
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}
