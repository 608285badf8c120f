package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DeliveryGuard makes Slack fan-out idempotent per event and channel.
// A nil client lets every delivery through.
type DeliveryGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeliveryGuard returns a guard whose markers expire after ttl.
func NewDeliveryGuard(client *redis.Client, ttl time.Duration) *DeliveryGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DeliveryGuard{client: client, ttl: ttl}
}

// Claim reports whether the caller is the first to deliver eventID to
// channel. Errors are returned alongside true so callers deliver anyway.
func (g *DeliveryGuard) Claim(ctx context.Context, eventID, channel string) (bool, error) {
	if g == nil || g.client == nil {
		return true, nil
	}
	ok, err := g.client.SetNX(ctx, fmt.Sprintf("slack_delivery:%s:%s", eventID, channel), 1, g.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Release forgets a claim so a failed delivery can be retried.
func (g *DeliveryGuard) Release(ctx context.Context, eventID, channel string) error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Del(ctx, fmt.Sprintf("slack_delivery:%s:%s", eventID, channel)).Err()
}

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Lock is a best-effort single-runner lock for scheduled jobs.
type Lock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// NewLock builds a lock on key. A nil client always acquires.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, value: uuid.NewString(), ttl: ttl}
}

// TryLock attempts to take the lock without blocking.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Unlock releases the lock only if this holder still owns it.
func (l *Lock) Unlock(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}
