package loyalty

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(repo *memRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCustomerSummary(t *testing.T) {
	repo := newMemRepo(1)
	id := enroll(t, repo, 7, TierBronze)
	require.NoError(t, repo.InsertTransaction(context.Background(), Transaction{
		TenantID: 1, LoyaltyID: id, Type: TxnEarned, Points: 50,
	}))

	svc := newTestService(repo)
	summary, err := svc.CustomerSummary(context.Background(), 1, 7)
	require.NoError(t, err)
	require.NotNil(t, summary.Account)
	require.Len(t, summary.Transactions, 1)
}

func TestCustomerSummaryUnenrolled(t *testing.T) {
	repo := newMemRepo(1)

	svc := newTestService(repo)
	summary, err := svc.CustomerSummary(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Nil(t, summary.Account)
	require.Empty(t, summary.Transactions)
}

func TestReviewTenantTiersPromotes(t *testing.T) {
	repo := newMemRepo(1)
	id := enroll(t, repo, 7, TierBronze)
	require.NoError(t, repo.ApplyAccrual(context.Background(), 1, id, 5200, 5200, time.Now()))

	svc := newTestService(repo)
	require.NoError(t, svc.ReviewTenantTiers(context.Background(), 1, time.Now()))
	require.Equal(t, TierGold, repo.accounts[id].TierLevel)
}

func TestReviewTenantTiersDemotesNothingAtThreshold(t *testing.T) {
	repo := newMemRepo(1)
	id := enroll(t, repo, 7, TierSilver)
	require.NoError(t, repo.ApplyAccrual(context.Background(), 1, id, 1000, 1000, time.Now()))

	svc := newTestService(repo)
	require.NoError(t, svc.ReviewTenantTiers(context.Background(), 1, time.Now()))
	require.Equal(t, TierSilver, repo.accounts[id].TierLevel)
}
