package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const runLockPrefix = "nurture:run-lock:"

// RunLock serializes nurture runs per tenant. The task queue delivers
// at-least-once, so the same run can arrive twice; whichever delivery takes
// the lock executes, the other is dropped. The TTL bounds how long a crashed
// worker can hold a site hostage.
type RunLock struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRunLock creates a per-site run lock backed by redis.
func NewRunLock(rdb *redis.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RunLock{rdb: rdb, ttl: ttl}
}

// Acquire attempts to take the lock for a site. Returns false when another
// run already holds it.
func (l *RunLock) Acquire(ctx context.Context, siteID uuid.UUID) (bool, error) {
	return l.rdb.SetNX(ctx, runLockPrefix+siteID.String(), "1", l.ttl).Result()
}

// Release frees the lock for a site. Releasing an expired or foreign lock
// is harmless.
func (l *RunLock) Release(ctx context.Context, siteID uuid.UUID) error {
	return l.rdb.Del(ctx, runLockPrefix+siteID.String()).Err()
}
