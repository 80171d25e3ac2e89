package tyadmin

import (
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// SessionStatus classifies a presented token.
type SessionStatus int

const (
	// StatusUnknown means no session exists for the token, or the token is malformed.
	StatusUnknown SessionStatus = iota
	// StatusExpired means a record exists but its expiry has passed.
	StatusExpired
	// StatusValid means the session is live.
	StatusValid
)

func (s SessionStatus) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Grant is the identity and permissions a new session is issued for. Roles and
// Permissions are copied; the caller may reuse the slices.
type Grant struct {
	SubjectID   int64
	Account     string
	Roles       []string
	Permissions []string
}

// IssueResult is returned by [Engine.Issue].
type IssueResult struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidateResult is returned by [Engine.Validate]. Session is set only for StatusValid.
type ValidateResult struct {
	Status    SessionStatus
	Session   *session.Session
	Refreshed bool
}

// Valid reports whether r carries a live session.
func (r *ValidateResult) Valid() bool {
	return r != nil && r.Status == StatusValid && r.Session != nil
}

// AuthResult is the authenticated operator view handed to request handlers.
// It never carries the token.
type AuthResult struct {
	SubjectID   int64
	Account     string
	Roles       []string
	Permissions []string
	Superuser   bool
	ExpiresAt   time.Time
}

// SessionInfo is the introspection view of a session.
type SessionInfo struct {
	SubjectID int64
	Account   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Remaining time.Duration
	StoreTTL  time.Duration
}

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	CacheAvailable bool
	CacheLatency   time.Duration
}

// UpstreamTokenStatus describes the cached upstream access token without revealing it.
type UpstreamTokenStatus struct {
	Cached     bool
	TTL        time.Duration
	Configured bool
}
