// Package lock serializes checkout per cart. Two registers finalizing the
// same cart must never both write a sale; one settles, the other sees the
// closed cart.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when another register holds the cart.
var ErrBusy = errors.New("lock: cart is being finalized elsewhere")

// CartLocker takes a short-lived redis lock around cart finalization.
type CartLocker struct {
	R       *redis.Client
	Prefix  string
	TTL     time.Duration
	MaxWait time.Duration
	Backoff time.Duration
}

func (l CartLocker) key(cartID string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "kassa:lock:cart:"
	}
	return prefix + cartID
}

// WithCart runs fn while holding the lock for cartID. The lock is released
// even when fn fails. If another holder keeps the lock past MaxWait the
// call gives up with ErrBusy instead of queueing registers indefinitely.
func (l CartLocker) WithCart(ctx context.Context, cartID string, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	backoff := l.Backoff
	if backoff <= 0 {
		backoff = 25 * time.Millisecond
	}
	maxWait := l.MaxWait
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}

	key := l.key(cartID)
	token := uuid.NewString()
	deadline := time.Now().Add(maxWait)

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(context.Background(), key, token)
			return fn(ctx)
		}
		if time.Now().After(deadline) {
			return ErrBusy
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// release deletes the key only while we still own it.
func (l CartLocker) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	_ = l.R.Eval(ctx, script, []string{key}, token).Err()
}
