package flows

import (
	"context"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

type IntrospectSessionStore interface {
	StoreTTL(ctx context.Context, token string) (time.Duration, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// IntrospectDeps captures introspection dependencies.
type IntrospectDeps struct {
	Now          func() time.Time
	Validate     ValidateDeps
	SessionStore IntrospectSessionStore
}

// IntrospectResult describes a token without mutating it.
type IntrospectResult struct {
	Status    ValidateStatus
	Session   *session.Session
	Remaining time.Duration
	StoreTTL  time.Duration
}

// RunIntrospect classifies token like RunValidate and additionally reports remaining
// lifetime and the cache TTL of the record. It never refreshes.
func RunIntrospect(ctx context.Context, token string, deps IntrospectDeps) (IntrospectResult, error) {
	res := RunValidate(ctx, token, deps.Validate)
	if res.Err != nil {
		return IntrospectResult{}, res.Err
	}

	out := IntrospectResult{Status: res.Status, Session: res.Session}
	if res.Status != ValidateValid {
		return out, nil
	}

	out.Remaining = res.Session.Remaining(deps.Now())
	ttl, err := deps.SessionStore.StoreTTL(ctx, token)
	if err != nil {
		return IntrospectResult{}, err
	}
	out.StoreTTL = ttl
	return out, nil
}

// RunPing checks session store health.
func RunPing(ctx context.Context, deps IntrospectDeps) (time.Duration, error) {
	return deps.SessionStore.Ping(ctx)
}
