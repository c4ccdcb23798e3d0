package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const scopeLockPrefix = "lock:requalify:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ScopeLockRepository is a Redis advisory lock keyed by sync scope.
type ScopeLockRepository struct {
	client *redis.Client
}

// NewScopeLockRepository constructs a ScopeLockRepository. With a nil client every acquire
// succeeds.
func NewScopeLockRepository(client *redis.Client) *ScopeLockRepository {
	return &ScopeLockRepository{client: client}
}

// Acquire tries to take the lock for key. It returns the release token and whether the lock
// was obtained.
func (r *ScopeLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if r.client == nil {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, scopeLockPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire scope lock %s: %w", key, err)
	}
	return token, ok, nil
}

// Release frees the lock if token still owns it.
func (r *ScopeLockRepository) Release(ctx context.Context, key, token string) error {
	if r.client == nil || token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, r.client, []string{scopeLockPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("release scope lock %s: %w", key, err)
	}
	return nil
}
