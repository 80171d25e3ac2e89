package flows

import (
	"context"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// IssueFailureKind classifies issue failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureInvalidRequest
	IssueFailureTokenGeneration
	IssueFailureSave
)

type IssueSessionStore interface {
	Save(ctx context.Context, sess *session.Session, ttl time.Duration) error
}

// IssueDeps captures issue flow dependencies.
type IssueDeps struct {
	NewToken     func() (string, error)
	Now          func() time.Time
	Lifetime     time.Duration
	SessionStore IssueSessionStore
}

// IssueRequest is the identity and grants a new session is minted for.
type IssueRequest struct {
	SubjectID   int64
	Account     string
	Roles       []string
	Permissions []string
}

// IssueResult carries the persisted session or failure metadata.
type IssueResult struct {
	Failure IssueFailureKind
	Err     error
	Session *session.Session
}

// RunIssue mints a token, builds the session record and persists it with a store TTL
// equal to the session lifetime. The session is readable as soon as RunIssue returns.
func RunIssue(ctx context.Context, req IssueRequest, deps IssueDeps) IssueResult {
	if req.Account == "" || deps.Lifetime <= 0 {
		return IssueResult{Failure: IssueFailureInvalidRequest}
	}

	token, err := deps.NewToken()
	if err != nil {
		return IssueResult{Failure: IssueFailureTokenGeneration, Err: err}
	}

	now := deps.Now()
	sess := &session.Session{
		Token:       token,
		SubjectID:   req.SubjectID,
		Account:     req.Account,
		Roles:       append([]string(nil), req.Roles...),
		Permissions: append([]string(nil), req.Permissions...),
		IssuedAt:    now.UnixMilli(),
		ExpiresAt:   now.Add(deps.Lifetime).UnixMilli(),
	}

	if err := deps.SessionStore.Save(ctx, sess, deps.Lifetime); err != nil {
		return IssueResult{Failure: IssueFailureSave, Err: err}
	}

	return IssueResult{Session: sess}
}
