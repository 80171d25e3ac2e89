package flows

import (
	"context"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.SessionStore != nil
}

func (s Service) Issue(ctx context.Context, req IssueRequest) IssueResult {
	return RunIssue(ctx, req, s.deps.Issue)
}

func (s Service) Validate(ctx context.Context, token string) ValidateResult {
	return RunValidate(ctx, token, s.deps.Validate)
}

func (s Service) ShouldRefresh(sess *session.Session) bool {
	return ShouldRefresh(sess, s.deps.Refresh)
}

func (s Service) Refresh(ctx context.Context, sess *session.Session) (*session.Session, error) {
	return RunRefresh(ctx, sess, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, token string) error {
	return RunLogout(ctx, token, s.deps.Logout)
}

func (s Service) Introspect(ctx context.Context, token string) (IntrospectResult, error) {
	return RunIntrospect(ctx, token, s.deps.Introspect)
}

func (s Service) Ping(ctx context.Context) (time.Duration, error) {
	return RunPing(ctx, s.deps.Introspect)
}
