package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLock is a SlotLock for multi-instance deployments: SET NX with a TTL
// so a crashed holder cannot wedge a stylist-day forever. Release is
// token-checked so an expired lock re-acquired by another instance is never
// deleted by the original holder.
type RedisLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

var redisReleaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisLock(rdb *redis.Client, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisLock{rdb: rdb, ttl: ttl, prefix: "slotlock"}
}

func (l *RedisLock) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = redisReleaseScript.Run(relCtx, l.rdb, []string{fullKey}, token).Result()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(50 * time.Millisecond):
		}
	}
}
