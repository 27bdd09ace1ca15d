// internal/adapters/redis_adapter/lock.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the lock
var ErrLocked = errors.New("lock held by another worker")

// Locker hands out short-lived distributed locks
type Locker struct {
	client *redislock.Client
	logger *slog.Logger
}

// NewLocker creates a locker on the given redis client
func NewLocker(client *redis.Client, logger *slog.Logger) *Locker {
	return &Locker{
		client: redislock.New(client),
		logger: logger.With(slog.String("component", "locker")),
	}
}

// Obtain takes lock:<key> for ttl. The returned release func is safe to
// call once the work is done; it only logs when the lock already expired.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lockKey := BuildKey(PrefixLock, key)

	lock, err := l.client.Obtain(ctx, lockKey, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	} else if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	release := func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WarnContext(ctx, "failed to release lock",
				slog.String("key", lockKey),
				slog.String("error", err.Error()))
		}
	}
	return release, nil
}
