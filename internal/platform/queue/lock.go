package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Locker hands out short-lived exclusive locks keyed by name.
type Locker struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewLocker(rdb redis.Cmdable, prefix string, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, prefix: prefix, ttl: ttl}
}

// TryLock takes the lock for name without waiting. ok is false when another
// holder has it. The returned release is safe to call after the TTL expired.
func (l *Locker) TryLock(ctx context.Context, name string) (release func(context.Context) error, ok bool, err error) {
	key := l.prefix + ":" + name
	token := uuid.NewString()

	ok, err = l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
