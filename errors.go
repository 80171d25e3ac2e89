package tyadmin

import "errors"

var (
	// ErrUnauthenticated is returned when no valid session backs the presented token:
	// the token is absent, malformed, unknown, expired or its record is unreadable.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the session is valid but lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionStoreUnavailable wraps cache failures on the session path. It is never
	// reported as ErrUnauthenticated.
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	// ErrSessionCreationFailed wraps token generation and persistence failures during Issue.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionRefreshFailed wraps persistence failures during an explicit Refresh.
	ErrSessionRefreshFailed = errors.New("session refresh failed")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidGrant is returned by Issue for grants without an account or with a role
	// identifier that cannot be persisted.
	ErrInvalidGrant = errors.New("invalid grant")
)
