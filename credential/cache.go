package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/cache"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultKey is the cache slot holding the shared access token.
	DefaultKey = "UPSTREAM:ACCESS_TOKEN"
	// DefaultSafetyMargin is subtracted from the upstream-declared lifetime.
	DefaultSafetyMargin = 300 * time.Second
	// DefaultMinStoreTTL floors the stored TTL.
	DefaultMinStoreTTL = time.Second
	// DefaultFetchTimeout bounds one upstream fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// Hooks observe cache activity. Nil fields are skipped.
type Hooks struct {
	OnHit         func()
	OnMiss        func()
	OnFetched     func(tok Token, storedTTL, elapsed time.Duration)
	OnFetchFailed func(err error)
	OnInvalidated func(deleted bool)
}

// Options configures [Cache]. Zero values select the package defaults.
type Options struct {
	Key string
	// SafetyMargin is subtracted from the declared lifetime before storing. A negative
	// value stores the declared lifetime unchanged.
	SafetyMargin time.Duration
	MinStoreTTL  time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Hooks        Hooks
}

// Cache is a cache-aside holder for one upstream access token.
type Cache struct {
	kv     cache.KV
	source Source

	key     string
	margin  time.Duration
	minTTL  time.Duration
	timeout time.Duration

	group  singleflight.Group
	logger *slog.Logger
	hooks  Hooks
}

// Status describes the cached slot without revealing the token.
type Status struct {
	Cached bool
	TTL    time.Duration
}

// New returns a Cache storing into kv and filling from source.
func New(kv cache.KV, source Source, opts Options) *Cache {
	c := &Cache{
		kv:      kv,
		source:  source,
		key:     opts.Key,
		margin:  opts.SafetyMargin,
		minTTL:  opts.MinStoreTTL,
		timeout: opts.FetchTimeout,
		logger:  opts.Logger,
		hooks:   opts.Hooks,
	}
	if c.key == "" {
		c.key = DefaultKey
	}
	if c.margin < 0 {
		c.margin = 0
	} else if c.margin == 0 {
		c.margin = DefaultSafetyMargin
	}
	if c.minTTL <= 0 {
		c.minTTL = DefaultMinStoreTTL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultFetchTimeout
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Key returns the cache slot key.
func (c *Cache) Key() string { return c.key }

// StoreTTL returns declared minus margin, never below floor.
func StoreTTL(declared, margin, floor time.Duration) time.Duration {
	ttl := declared - margin
	if ttl < floor {
		return floor
	}
	return ttl
}

// GetOrFetch returns the cached token, fetching it from the upstream on a miss.
// Concurrent misses share one fetch.
//
//	Performance: 1 cache GET on a hit; on a miss 2 GETs, 1 SET and 1 upstream call per flight.
func (c *Cache) GetOrFetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	v, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return "", err
	}
	if ok {
		call(c.hooks.OnHit)
		return v, nil
	}
	call(c.hooks.OnMiss)

	ch := c.group.DoChan(c.key, func() (any, error) {
		return c.fill(ctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// fill runs once per flight on a context detached from the leading caller so one
// cancelled caller does not fail the others.
func (c *Cache) fill(parent context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.timeout)
	defer cancel()

	v, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return "", err
	}
	if ok {
		return v, nil
	}

	start := time.Now()
	tok, err := c.source.Fetch(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrUpstreamTransport) {
			err = errors.Join(ErrUpstreamTransport, err)
		}
		c.logger.Warn("upstream credential fetch failed",
			"error", err,
			"elapsed", time.Since(start),
		)
		if c.hooks.OnFetchFailed != nil {
			c.hooks.OnFetchFailed(err)
		}
		return "", err
	}

	ttl := StoreTTL(tok.TTL, c.margin, c.minTTL)
	if err := c.kv.Set(ctx, c.key, tok.Value, ttl); err != nil {
		err = fmt.Errorf("%w: %w", ErrNotCached, err)
		c.logger.Warn("upstream credential not cached", "error", err)
		if c.hooks.OnFetchFailed != nil {
			c.hooks.OnFetchFailed(err)
		}
		return "", err
	}
	c.logger.Info("upstream credential refreshed",
		"declared_ttl", tok.TTL,
		"stored_ttl", ttl,
		"elapsed", time.Since(start),
	)
	if c.hooks.OnFetched != nil {
		c.hooks.OnFetched(tok, ttl, time.Since(start))
	}
	return tok.Value, nil
}

// Invalidate removes the cached token only if it still equals failed.
func (c *Cache) Invalidate(ctx context.Context, failed string) (bool, error) {
	deleted, err := c.kv.DeleteIfValue(ctx, c.key, failed)
	if err != nil {
		return false, err
	}
	if c.hooks.OnInvalidated != nil {
		c.hooks.OnInvalidated(deleted)
	}
	return deleted, nil
}

// InvalidateAndRetryOnce invalidates failed and performs exactly one GetOrFetch.
// If another caller already replaced the token, that token is returned without a fetch.
func (c *Cache) InvalidateAndRetryOnce(ctx context.Context, failed string) (string, error) {
	if _, err := c.Invalidate(ctx, failed); err != nil {
		return "", err
	}
	return c.GetOrFetch(ctx)
}

// Do runs fn with the current token. When fn fails with a stale-credential error the token
// is invalidated and fn runs once more with a fresh token; the second result is returned
// as is.
func (c *Cache) Do(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	tok, err := c.GetOrFetch(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, tok)
	if !IsStale(err) {
		return err
	}

	c.logger.Info("upstream rejected credential, refreshing once")
	fresh, rerr := c.InvalidateAndRetryOnce(ctx, tok)
	if rerr != nil {
		return rerr
	}
	return fn(ctx, fresh)
}

// Status reports whether the slot is populated and its remaining cache TTL.
func (c *Cache) Status(ctx context.Context) (Status, error) {
	_, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}
	ttl, err := c.kv.TTL(ctx, c.key)
	if err != nil {
		return Status{}, err
	}
	return Status{Cached: true, TTL: ttl}, nil
}

func call(f func()) {
	if f != nil {
		f()
	}
}
