package tyadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/GitHub-GodOne/ty-admin-sub001/internal/flows"
	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// Introspect describes a live session without refreshing it. Tokens that are not valid
// return [ErrUnauthenticated].
//
//	Performance: 1 cache GET + 1 PTTL.
func (e *Engine) Introspect(ctx context.Context, token string) (*SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res, err := e.flows.Introspect(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionCorrupt) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}
	if res.Status != flows.ValidateValid {
		return nil, ErrUnauthenticated
	}

	sess := res.Session
	return &SessionInfo{
		SubjectID: sess.SubjectID,
		Account:   sess.Account,
		Roles:     append([]string(nil), sess.Roles...),
		IssuedAt:  sess.IssuedAtTime(),
		ExpiresAt: sess.ExpiresAtTime(),
		Remaining: res.Remaining,
		StoreTTL:  res.StoreTTL,
	}, nil
}

// Ping checks the shared cache and reports its latency.
func (e *Engine) Ping(ctx context.Context) (HealthStatus, error) {
	if !e.ready() {
		return HealthStatus{}, ErrEngineNotReady
	}

	latency, err := e.flows.Ping(ctx)
	status := HealthStatus{
		CacheAvailable: err == nil,
		CacheLatency:   latency,
	}
	if err != nil {
		return status, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}
	return status, nil
}
