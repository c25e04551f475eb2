package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const nonceKeyPrefix = "oauth:state:nonce:"

// NonceStore remembers OAuth state nonces so each authorization can complete only once.
type NonceStore struct {
	client *redis.Client
}

func NewNonceStore(client *redis.Client) *NonceStore {
	return &NonceStore{client: client}
}

// Claim marks nonce as used for ttl. It returns false when the nonce was already claimed.
func (s *NonceStore) Claim(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, nonceKeyPrefix+nonce, time.Now().Unix(), ttl).Result()
}
