// Package lock guards a payment row while it is being settled
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another caller holds the guard
var ErrHeld = errors.New("lock is held")

// Locker acquires a short-lived guard for key. The returned release func is
// safe to call once the guard has expired.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client, prefix: "finwise:settlement:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	name := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", name, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{name}, token).Err(); err != nil {
			return fmt.Errorf("releasing %s: %w", name, err)
		}
		return nil
	}
	return release, nil
}

// NoopLocker always grants the guard. Used when Redis is disabled; the
// conditional row update still prevents double settlement.
type NoopLocker struct{}

func (NoopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// SettlementKey names the guard of one payment row
func SettlementKey(planID string, installmentNumber int) string {
	return fmt.Sprintf("%s:%d", planID, installmentNumber)
}
