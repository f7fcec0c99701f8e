package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore remembers signed out token ids until they would have expired.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore returns a store that is a no-op when rdb is nil; signing
// out then only clears the browser cookie.
func NewRedisTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("session:revoked:%s", tokenID)
}

func (s *redisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s.rdb == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (s *redisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.rdb == nil || tokenID == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n == 1, nil
}
