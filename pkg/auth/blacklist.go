package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/leadgridhq/leadgrid/pkg/cache"
)

// TokenBlacklist tracks revoked session tokens until they would have expired
// anyway. Tokens are stored hashed, never raw.
type TokenBlacklist struct {
	cache *cache.Client
}

// NewTokenBlacklist creates a new token blacklist.
func NewTokenBlacklist(cache *cache.Client) *TokenBlacklist {
	return &TokenBlacklist{cache: cache}
}

// Add revokes a token for the given duration.
func (b *TokenBlacklist) Add(ctx context.Context, token string, expiration time.Duration) error {
	return b.cache.Set(ctx, b.key(token), "revoked", expiration)
}

// IsBlacklisted reports whether a token has been revoked.
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return b.cache.Exists(ctx, b.key(token))
}

func (b *TokenBlacklist) key(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("jwt:blacklist:%s", hex.EncodeToString(hash[:]))
}
