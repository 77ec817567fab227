package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionManager stores bearer tokens in Redis, mapping token to tenant id.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, ttl: ttl}
}

// Create issues a fresh token for the tenant.
func (sm *SessionManager) Create(ctx context.Context, tenantID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if err := sm.client.Set(ctx, sm.key(token), tenantID, sm.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a token to its tenant id and refreshes the TTL. ok is
// false for unknown or expired tokens.
func (sm *SessionManager) Lookup(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	value, err := sm.client.Get(ctx, sm.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("auth: load session: %w", err)
	}
	tenantID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("auth: corrupt session payload: %w", err)
	}
	// Sliding expiry; a failure here only shortens the session.
	_ = sm.client.Expire(ctx, sm.key(token), sm.ttl).Err()
	return tenantID, true, nil
}

// Destroy removes the token.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func (sm *SessionManager) key(token string) string {
	return "hisab:session:" + token
}
