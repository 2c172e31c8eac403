package auth

import (
	"context"
	"time"

	"github.com/taskflow/task-tracker-api/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:access_token:"

// TokenStoreInterface defines the revocation operations used by logout and
// the auth middleware.
type TokenStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps revoked token ids until the tokens would have expired anyway.
type TokenStore struct {
	cache cache.Store
}

var _ TokenStoreInterface = (*TokenStore)(nil)

func NewTokenStore(store cache.Store) *TokenStore {
	return &TokenStore{cache: store}
}

// Revoke marks tokenID as unusable for ttl. Already expired tokens are ignored.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks the revocation list. A failed lookup is returned as an
// error, never as "not revoked".
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	data, err := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenID)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}
