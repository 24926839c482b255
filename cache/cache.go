package cache

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
)

// MaxKeyLength bounds keys so they stay valid Redis keys of reasonable size.
const MaxKeyLength = 512

var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores encoded LLM responses by key. MemoryCache and RedisCache
// implement it.
//
// Implementations must be safe for concurrent use. Get never errors: an
// unreachable backend reads as a miss so callers fall through to the
// provider.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects blank keys, keys containing control characters and
// keys longer than MaxKeyLength.
func ValidateKey(key string) error {
	switch {
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case strings.TrimSpace(key) == "", strings.IndexFunc(key, unicode.IsControl) >= 0:
		return ErrInvalidKey
	}
	return nil
}
