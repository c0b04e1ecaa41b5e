package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const scanLockKey = "room-scheduler:lock:conflict-scan"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ScanLockRepository serialises conflict scans across instances with a
// Redis SET NX lock. Without a client every acquire succeeds.
type ScanLockRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScanLockRepository builds a lock with the given expiry.
func NewScanLockRepository(client *redis.Client, ttl time.Duration) *ScanLockRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScanLockRepository{client: client, ttl: ttl}
}

// Acquire tries to take the lock. It returns a release func when acquired.
func (r *ScanLockRepository) Acquire(ctx context.Context) (bool, func(context.Context) error, error) {
	if r.client == nil {
		return true, func(context.Context) error { return nil }, nil
	}

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, scanLockKey, token, r.ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return false, nil, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{scanLockKey}, token).Err(); err != nil {
			return fmt.Errorf("release scan lock: %w", err)
		}
		return nil
	}
	return true, release, nil
}
