package lock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes critical sections keyed by an arbitrary string.
// Acquire returns a release func, or ok=false when another holder is active.
//
//go:generate mockgen -source=lock.go -destination=mock/lock_mock.go -package=mock
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

type redisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLocker locks via SetNX. The TTL bounds lock lifetime so a crashed
// holder cannot wedge the key forever.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLocker{rdb: rdb, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	ok, err := l.rdb.SetNX(ctx, key, "locked", l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		_ = l.rdb.Del(context.Background(), key).Err()
	}
	return release, true, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker is the in-process fallback used when redis is not
// configured. It only protects against concurrent calls within one instance.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]struct{})}
}

func (l *localLocker) Acquire(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.held[key]; exists {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}
	return release, true, nil
}
