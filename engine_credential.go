package tyadmin

import "context"

// UpstreamToken returns the shared upstream access token, fetching it on a cache miss.
// Concurrent misses cause one upstream call.
func (e *Engine) UpstreamToken(ctx context.Context) (string, error) {
	if e == nil || e.upstream == nil {
		return "", ErrEngineNotReady
	}
	return e.upstream.GetOrFetch(ctx)
}

// WithUpstreamToken runs fn with the upstream access token. If fn reports a stale token
// (credential.IsStale) the token is invalidated and fn runs exactly once more.
func (e *Engine) WithUpstreamToken(ctx context.Context, fn func(ctx context.Context, token string) error) error {
	if e == nil || e.upstream == nil {
		return ErrEngineNotReady
	}

	calls := 0
	return e.upstream.Do(ctx, func(ctx context.Context, token string) error {
		calls++
		if calls == 2 {
			e.metricInc(MetricCredentialStaleRetry)
		}
		return fn(ctx, token)
	})
}

// InvalidateUpstreamToken drops failed from the cache if it is still current and returns
// a usable token: the one another caller already stored, or a freshly fetched one.
func (e *Engine) InvalidateUpstreamToken(ctx context.Context, failed string) (string, error) {
	if e == nil || e.upstream == nil {
		return "", ErrEngineNotReady
	}
	return e.upstream.InvalidateAndRetryOnce(ctx, failed)
}

// UpstreamTokenStatus reports whether an upstream token is cached and for how long.
func (e *Engine) UpstreamTokenStatus(ctx context.Context) (UpstreamTokenStatus, error) {
	if e == nil || e.upstream == nil {
		return UpstreamTokenStatus{}, ErrEngineNotReady
	}

	st, err := e.upstream.Status(ctx)
	if err != nil {
		return UpstreamTokenStatus{}, err
	}
	return UpstreamTokenStatus{
		Cached:     st.Cached,
		TTL:        st.TTL,
		Configured: e.upstreamConfigured(),
	}, nil
}

func (e *Engine) upstreamConfigured() bool {
	return e.customSource || (e.config.Credential.AppID != "" && e.config.Credential.Secret != "")
}
