package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("calendar lock not acquired")
)

// Locker serializes the conflict-check-then-insert critical section per
// calendar resource so that two concurrent bookings cannot both pass their
// conflict check before either commits.
type Locker interface {
	WithCalendarLock(ctx context.Context, calendarID string, fn func(ctx context.Context) error) error
}

type redisCalendarLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCalendarLocker creates a locker that uses a per calendar Redis key
func NewRedisCalendarLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisCalendarLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisCalendarLocker) WithCalendarLock(ctx context.Context, calendarID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:calendar:%s", calendarID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire calendar lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisCalendarLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release calendar lock: %w", err)
	}
	return nil
}

// localLocker is the single-process fallback used when no Redis address is
// configured. It serializes bookings within this process only, which is
// enough for a single-replica deployment.
type localLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() Locker {
	return &localLocker{}
}

func (l *localLocker) WithCalendarLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
