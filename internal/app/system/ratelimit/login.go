package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
)

// LoginGuard tracks failed sign-ins per account identifier, so a targeted
// attack on one account is stopped even when it comes from many IPs.
type LoginGuard struct {
	store       ttlstore.Store
	maxFailures int
	window      time.Duration
	lockout     time.Duration
}

// NewLoginGuard locks an account for 15 minutes after 5 failures in 15 minutes.
func NewLoginGuard(store ttlstore.Store) *LoginGuard {
	return &LoginGuard{
		store:       store,
		maxFailures: 5,
		window:      15 * time.Minute,
		lockout:     15 * time.Minute,
	}
}

func normalizeIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Locked reports whether identifier is locked and until when.
func (g *LoginGuard) Locked(ctx context.Context, identifier string) (bool, time.Time, error) {
	at, ok, err := g.store.Expiry(ctx, "login:lock:"+normalizeIdentifier(identifier))
	return ok, at, err
}

// Fail records a failed attempt. It returns true when this failure locked the account.
func (g *LoginGuard) Fail(ctx context.Context, identifier string) (bool, error) {
	id := normalizeIdentifier(identifier)
	n, _, err := g.store.Incr(ctx, "login:fail:"+id, g.window)
	if err != nil {
		return false, err
	}
	if n < int64(g.maxFailures) {
		return false, nil
	}
	if err := g.store.Put(ctx, "login:lock:"+id, g.lockout); err != nil {
		return false, err
	}
	_ = g.store.Delete(ctx, "login:fail:"+id)
	return true, nil
}

// Succeed clears the failure count after a successful sign-in.
func (g *LoginGuard) Succeed(ctx context.Context, identifier string) error {
	return g.store.Delete(ctx, "login:fail:"+normalizeIdentifier(identifier))
}
