package lock

import (
	"context"
	"errors"
	"time"
)

var ErrAlreadyHeld = errors.New("lock already held by this process")
var ErrNotAcquired = errors.New("lock not acquired")

// Locker guards a delivery so only one dispatcher works on it at a
// time. Either acquisition error means another worker owns the
// delivery and this one should defer rather than send a duplicate.
type Locker interface {
	// Acquire claims a delivery key until released or the TTL expires.
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	// Release frees the claim on a delivery key.
	Release(ctx context.Context, key string) error
}
