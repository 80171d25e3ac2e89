package flows

import "context"

type LogoutSessionStore interface {
	Delete(ctx context.Context, token string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	SessionStore LogoutSessionStore
}

// RunLogout deletes the session for token. Logging out twice is not an error.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) error {
	return deps.SessionStore.Delete(ctx, token)
}
