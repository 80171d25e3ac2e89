package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/cache"
)

// KeyPrefix namespaces admin session records in the shared cache.
const KeyPrefix = "TOKEN:ADMIN:"

// ErrStoreUnavailable wraps cache failures seen by the store.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrSessionNotFound is returned by Get when no record exists for the token.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session records in a [cache.KV].
type Store struct {
	kv     cache.KV
	prefix string
}

// NewStore returns a Store over kv. An empty prefix selects [KeyPrefix].
func NewStore(kv cache.KV, prefix string) *Store {
	if prefix == "" {
		prefix = KeyPrefix
	}
	return &Store{kv: kv, prefix: prefix}
}

// Key returns the cache key for token.
func (s *Store) Key(token string) string {
	return s.prefix + token
}

// Save writes sess under its token with the given TTL.
//
//	Performance: 1 cache SET.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.Token == "" {
		return errors.New("session token required")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.Key(sess.Token), data, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get loads the session for token. A miss returns [ErrSessionNotFound]; expiry is not
// interpreted here.
//
//	Performance: 1 cache GET.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	data, ok, err := s.kv.Get(ctx, s.Key(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.Token = token
	return sess, nil
}

// Extend rewrites an existing record with a new TTL. A record deleted in the meantime is
// not recreated; Extend then returns [ErrSessionNotFound].
//
//	Performance: 1 cache SET.
func (s *Store) Extend(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.Token == "" {
		return errors.New("session token required")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	ok, err := s.kv.SetIfExists(ctx, s.Key(sess.Token), data, ttl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session for token. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.kv.Delete(ctx, s.Key(token)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// StoreTTL returns the remaining cache TTL of the record for token.
func (s *Store) StoreTTL(ctx context.Context, token string) (time.Duration, error) {
	d, err := s.kv.TTL(ctx, s.Key(token))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}

// Ping returns a point-in-time cache availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.kv.Ping(ctx); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
