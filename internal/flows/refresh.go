package flows

import (
	"context"
	"errors"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

type RefreshSessionStore interface {
	Extend(ctx context.Context, sess *session.Session, ttl time.Duration) error
}

// RefreshDeps captures sliding-refresh dependencies.
type RefreshDeps struct {
	Now          func() time.Time
	Lifetime     time.Duration
	Policy       session.RefreshPolicy
	SessionStore RefreshSessionStore
}

// ShouldRefresh asks the policy whether sess is due for extension at now.
func ShouldRefresh(sess *session.Session, deps RefreshDeps) bool {
	if sess == nil || deps.Policy == nil {
		return false
	}
	return deps.Policy.ShouldRefresh(sess.Remaining(deps.Now()))
}

// RunRefresh extends sess to now + lifetime and re-persists it. The input is not
// modified; the stored copy is returned. A session logged out since it was read stays
// deleted.
func RunRefresh(ctx context.Context, sess *session.Session, deps RefreshDeps) (*session.Session, error) {
	if sess == nil || sess.Token == "" {
		return nil, errors.New("refresh requires a stored session")
	}
	if deps.Lifetime <= 0 {
		return nil, errors.New("refresh requires a positive lifetime")
	}

	next := sess.Clone()
	next.ExpiresAt = deps.Now().Add(deps.Lifetime).UnixMilli()
	if next.ExpiresAt <= next.IssuedAt {
		next.ExpiresAt = next.IssuedAt + 1
	}

	if err := deps.SessionStore.Extend(ctx, next, deps.Lifetime); err != nil {
		return nil, err
	}
	return next, nil
}
