package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every cache failure that is not a plain miss.
var ErrUnavailable = errors.New("cache unavailable")

// ErrInvalidTTL is returned by Set when ttl is not positive.
var ErrInvalidTTL = errors.New("cache ttl must be positive")

// KV is the minimal shared-cache contract.
//
// Implementations must be safe for concurrent use. No atomicity across keys is assumed.
type KV interface {
	// Get returns the value stored at key. A miss is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value at key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetIfExists overwrites key only when it is present, atomically. It reports whether
	// the write happened.
	SetIfExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteIfValue removes key only when it currently holds value, atomically.
	// It reports whether a delete happened.
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)

	// TTL returns the remaining lifetime of key, or a non-positive duration when the key
	// is missing or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}
