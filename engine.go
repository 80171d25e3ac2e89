package tyadmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/credential"
	"github.com/GitHub-GodOne/ty-admin-sub001/internal/flows"
	"github.com/GitHub-GodOne/ty-admin-sub001/permission"
	"github.com/GitHub-GodOne/ty-admin-sub001/session"
)

// Engine issues, validates and authorizes operator sessions and holds the shared upstream
// access token. Build one with [Builder].
type Engine struct {
	config    Config
	store     *session.Store
	flows     flows.Service
	evaluator permission.Evaluator
	registry  *permission.Registry
	upstream  *credential.Cache
	// customSource is set when the upstream source was injected rather than built from
	// CredentialConfig.
	customSource bool
	audit     *auditDispatcher
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Close stops the audit dispatcher after draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped due to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditSinkPanics returns the number of audit deliveries lost to a panicking sink.
func (e *Engine) AuditSinkPanics() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.SinkPanics()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TransportConfig returns where the engine expects inbound tokens.
func (e *Engine) TransportConfig() TransportConfig {
	if e == nil {
		return DefaultConfig().Transport
	}
	return e.config.Transport
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Issue creates a session for grant and returns its token. The session is readable by
// Validate as soon as Issue returns.
//
//	Performance: 1 cache SET.
func (e *Engine) Issue(ctx context.Context, grant Grant) (*IssueResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if err := checkGrant(grant); err != nil {
		e.metricInc(MetricSessionIssueFailure)
		e.emitAudit(ctx, auditEventSessionIssueFailed, false, grant.SubjectID, grant.Account, err, nil)
		return nil, err
	}

	res := e.flows.Issue(ctx, flows.IssueRequest{
		SubjectID:   grant.SubjectID,
		Account:     grant.Account,
		Roles:       grant.Roles,
		Permissions: grant.Permissions,
	})

	var err error
	switch res.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailureInvalidRequest:
		err = ErrInvalidGrant
	default:
		err = fmt.Errorf("%w: %v", ErrSessionCreationFailed, res.Err)
	}
	if err != nil {
		e.metricInc(MetricSessionIssueFailure)
		e.logger.Error("session issue failed", "subject_id", grant.SubjectID, "error", err)
		e.emitAudit(ctx, auditEventSessionIssueFailed, false, grant.SubjectID, grant.Account, err, nil)
		return nil, err
	}

	e.metricInc(MetricSessionIssued)
	e.emitAudit(ctx, auditEventSessionIssued, true, grant.SubjectID, grant.Account, nil, func() map[string]string {
		return map[string]string{"roles": fmt.Sprint(len(grant.Roles))}
	})

	sess := res.Session
	return &IssueResult{
		Token:     sess.Token,
		IssuedAt:  sess.IssuedAtTime(),
		ExpiresAt: sess.ExpiresAtTime(),
	}, nil
}

func checkGrant(grant Grant) error {
	if strings.TrimSpace(grant.Account) == "" {
		return fmt.Errorf("%w: account required", ErrInvalidGrant)
	}
	for _, r := range grant.Roles {
		if r == "" {
			return fmt.Errorf("%w: empty role identifier", ErrInvalidGrant)
		}
		if strings.Contains(r, ",") {
			return fmt.Errorf("%w: role identifier contains ','", ErrInvalidGrant)
		}
	}
	return nil
}

// Validate classifies token. An absent or malformed token is StatusUnknown with a nil
// error; only store failures and unreadable records return an error.
//
// When the refresh policy asks for it, a valid session is extended before returning. A
// failed extension is logged and counted but does not fail validation.
//
//	Performance: 1 cache GET; +1 SET when a sliding refresh runs.
func (e *Engine) Validate(ctx context.Context, token string) (*ValidateResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	res := e.flows.Validate(ctx, token)
	if res.Err != nil {
		if errors.Is(res.Err, session.ErrSessionCorrupt) {
			e.metricInc(MetricValidateUnknown)
			e.logger.Warn("session record unreadable", "error", res.Err)
			return nil, res.Err
		}
		e.metricInc(MetricValidateStoreFailure)
		e.logger.Error("session store read failed", "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, res.Err)
	}

	switch res.Status {
	case flows.ValidateUnknown:
		e.metricInc(MetricValidateUnknown)
		return &ValidateResult{Status: StatusUnknown}, nil
	case flows.ValidateExpired:
		e.metricInc(MetricValidateExpired)
		return &ValidateResult{Status: StatusExpired}, nil
	}

	e.metricInc(MetricValidateValid)
	out := &ValidateResult{Status: StatusValid, Session: res.Session}

	if e.flows.ShouldRefresh(res.Session) {
		next, err := e.flows.Refresh(ctx, res.Session)
		if err != nil {
			e.metricInc(MetricSessionRefreshFailure)
			e.logger.Warn("sliding refresh failed", "subject_id", res.Session.SubjectID, "error", err)
			return out, nil
		}
		e.metricInc(MetricSessionRefreshed)
		e.emitAudit(ctx, auditEventSessionRefreshed, true, next.SubjectID, next.Account, nil, nil)
		out.Session = next
		out.Refreshed = true
	}

	return out, nil
}

// Refresh extends sess to now plus the session lifetime and re-persists it. The input is
// not modified. Expired sessions are not revived.
func (e *Engine) Refresh(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if sess == nil || sess.Token == "" || sess.Expired(e.now()) {
		return nil, ErrUnauthenticated
	}

	next, err := e.flows.Refresh(ctx, sess)
	if err != nil {
		e.metricInc(MetricSessionRefreshFailure)
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		if errors.Is(err, session.ErrStoreUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionRefreshFailed, err)
	}

	e.metricInc(MetricSessionRefreshed)
	e.emitAudit(ctx, auditEventSessionRefreshed, true, next.SubjectID, next.Account, nil, nil)
	return next, nil
}

// Authenticate validates token and returns the operator view of a live session.
// Unknown, expired, absent and unreadable tokens return [ErrUnauthenticated].
func (e *Engine) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	res, err := e.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionStoreUnavailable) || errors.Is(err, ErrEngineNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !res.Valid() {
		return nil, ErrUnauthenticated
	}
	return e.authResult(res.Session), nil
}

// Authorize validates token and checks that the session may perform an operation requiring
// required: superuser role first, then the wildcard grant, then exact match.
//
//	Performance: 1 cache GET (see Validate).
func (e *Engine) Authorize(ctx context.Context, token, required string) (*AuthResult, error) {
	ar, err := e.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if e.registry != nil && e.config.Permission.RequireDeclared && !e.registry.Has(required) {
		e.logger.Error("authorization against undeclared permission", "permission", required)
		e.denied(ctx, ar, required, "undeclared")
		return nil, ErrForbidden
	}

	granted := permission.NewSet(ar.Permissions)
	if !e.evaluator.IsAuthorized(ar.Roles, granted, required) {
		e.denied(ctx, ar, required, "missing")
		return nil, ErrForbidden
	}

	e.metricInc(MetricAuthorizationGranted)
	return ar, nil
}

// HasPermission evaluates an already validated session without touching the cache.
func (e *Engine) HasPermission(sess *session.Session, required string) bool {
	if e == nil || sess == nil {
		return false
	}
	return e.evaluator.IsAuthorized(sess.Roles, permission.NewSet(sess.Permissions), required)
}

// CheckDeclared returns an error when RequireDeclared is set and perm was never declared.
func (e *Engine) CheckDeclared(perm string) error {
	if e == nil || e.registry == nil {
		return ErrEngineNotReady
	}
	if perm == "" {
		return permission.ErrEmptyPermission
	}
	if perm == permission.WildcardValue {
		return permission.ErrWildcardNotDeclarable
	}
	if e.config.Permission.RequireDeclared && !e.registry.Has(perm) {
		return fmt.Errorf("permission %q is not declared", perm)
	}
	return nil
}

func (e *Engine) denied(ctx context.Context, ar *AuthResult, required, reason string) {
	e.metricInc(MetricAuthorizationDenied)
	e.emitAudit(ctx, auditEventAuthorizationDenied, false, ar.SubjectID, ar.Account, ErrForbidden, func() map[string]string {
		return map[string]string{
			"permission": required,
			"reason":     reason,
		}
	})
}

func (e *Engine) authResult(sess *session.Session) *AuthResult {
	return &AuthResult{
		SubjectID:   sess.SubjectID,
		Account:     sess.Account,
		Roles:       append([]string(nil), sess.Roles...),
		Permissions: append([]string(nil), sess.Permissions...),
		Superuser:   e.evaluator.IsSuperuser(sess.Roles),
		ExpiresAt:   sess.ExpiresAtTime(),
	}
}

// Logout deletes the session behind token. Logging out an unknown or already removed
// session succeeds.
//
//	Performance: 1 cache DEL.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if token == "" {
		return ErrUnauthenticated
	}

	if err := e.flows.Logout(ctx, token); err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
		e.logger.Error("session delete failed", "error", err)
		e.emitAudit(ctx, auditEventLogout, false, 0, "", err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, 0, "", nil, nil)
	return nil
}
