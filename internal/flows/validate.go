package flows

import (
	"context"
	"errors"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// ValidateStatus is the classification of a presented token.
type ValidateStatus int

const (
	ValidateUnknown ValidateStatus = iota
	ValidateExpired
	ValidateValid
)

// ValidateResult returns the classified status, the session when valid, or a store error.
// Err is set only for failures that are not a classification (store down, corrupt record).
type ValidateResult struct {
	Status  ValidateStatus
	Session *session.Session
	Err     error
}

type ValidateSessionStore interface {
	Get(ctx context.Context, token string) (*session.Session, error)
}

// ValidateDeps captures validation dependencies.
type ValidateDeps struct {
	Now             func() time.Time
	IsWellFormed    func(string) bool
	SessionStore    ValidateSessionStore
	SessionNotFound error
}

// RunValidate classifies token as valid, expired or unknown.
//
// Malformed tokens are unknown without a store round trip. Expired records are left in
// place for the cache TTL to remove.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	if token == "" || (deps.IsWellFormed != nil && !deps.IsWellFormed(token)) {
		return ValidateResult{Status: ValidateUnknown}
	}

	sess, err := deps.SessionStore.Get(ctx, token)
	if err != nil {
		if deps.SessionNotFound != nil && errors.Is(err, deps.SessionNotFound) {
			return ValidateResult{Status: ValidateUnknown}
		}
		return ValidateResult{Status: ValidateUnknown, Err: err}
	}

	if sess.Expired(deps.Now()) {
		return ValidateResult{Status: ValidateExpired}
	}

	return ValidateResult{Status: ValidateValid, Session: sess}
}
