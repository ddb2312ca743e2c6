package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
)

// Blacklist holds revoked tokens until their natural expiry.
type Blacklist struct {
	store ttlstore.Store
}

// NewBlacklist keeps revocations in store.
func NewBlacklist(store ttlstore.Store) *Blacklist {
	return &Blacklist{store: store}
}

// Tokens are keyed by digest so the store never holds a usable credential.
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:blacklist:" + hex.EncodeToString(sum[:])
}

// Add revokes token for ttl.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.store.Put(ctx, blacklistKey(token), ttl)
}

// Contains reports whether token has been revoked and has not yet expired.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	_, ok, err := b.store.Expiry(ctx, blacklistKey(token))
	return ok, err
}
