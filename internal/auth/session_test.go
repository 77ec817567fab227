package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, time.Hour), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	token, err := sessions.Create(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	tenantID, ok, err := sessions.Lookup(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), tenantID)
}

func TestSessionUnknownToken(t *testing.T) {
	sessions, _ := newTestSessions(t)

	_, ok, err := sessions.Lookup(context.Background(), "bogus")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = sessions.Lookup(context.Background(), "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionExpires(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	token, err := sessions.Create(ctx, 42)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, ok, err := sessions.Lookup(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionDestroy(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	token, err := sessions.Create(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, sessions.Destroy(ctx, token))

	_, ok, err := sessions.Lookup(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sessions.Destroy(ctx, ""))
}

func TestSessionTokensAreUnique(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	a, err := sessions.Create(ctx, 1)
	require.NoError(t, err)
	b, err := sessions.Create(ctx, 1)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
