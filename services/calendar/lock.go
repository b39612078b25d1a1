package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caredesk/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockBusy is returned when a day lock stays held past the wait budget.
var ErrLockBusy = errors.New("booking lock busy")

// Locker serialises booking transactions for one professional-day.
type Locker interface {
	Acquire(ctx context.Context, ref models.ProfessionalRef, date models.DateKey) (release func(), err error)
}

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is an advisory SET NX PX lock. It narrows the race between concurrent
// transactions on the same day; the ledger check remains the conflict check of record.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, wait: ttl, poll: 50 * time.Millisecond}
}

func lockKey(ref models.ProfessionalRef, date models.DateKey) string {
	return fmt.Sprintf("booking-lock:%s:%s:%s", ref.Kind, ref.ID, date)
}

func (l *RedisLocker) Acquire(ctx context.Context, ref models.ProfessionalRef, date models.DateKey) (func(), error) {
	key := lockKey(ref, date)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				releaseScript.Run(ctx, l.client, []string{key}, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
