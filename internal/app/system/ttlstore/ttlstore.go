// Package ttlstore provides key/value stores whose entries expire.
//
// The token blacklist, the rate limiters and the failed-login tracker all keep
// their state in a Store handed to them at construction. A single-process
// deployment uses Memory; several instances behind a load balancer share a
// Redis store so counters and revocations are seen by every instance.
package ttlstore

import (
	"context"
	"time"
)

// Store is a counter/marker store with per-key expiry.
type Store interface {
	// Incr increments the counter at key. A missing or expired key starts a
	// new window of length window at count 1. It returns the new count and the
	// time the window ends.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)

	// Put marks key as present until ttl elapses, replacing any prior value.
	Put(ctx context.Context, key string, ttl time.Duration) error

	// Expiry returns when key expires. ok is false when the key is absent.
	Expiry(ctx context.Context, key string) (at time.Time, ok bool, err error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that keep expired entries until swept.
type Sweeper interface {
	// Sweep drops expired entries and returns how many were removed.
	Sweep() int
}
