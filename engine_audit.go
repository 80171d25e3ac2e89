package tyadmin

import (
	"context"
	"errors"
	"time"

	"github.com/GitHub-GodOne/ty-admin-sub001/cache"
	"github.com/GitHub-GodOne/ty-admin-sub001/credential"
)

const (
	auditEventSessionIssued        = "session_issued"
	auditEventSessionIssueFailed   = "session_issue_failed"
	auditEventSessionRefreshed     = "session_refreshed"
	auditEventLogout               = "logout"
	auditEventAuthorizationDenied  = "authorization_denied"
	auditEventCredentialRefreshed  = "credential_refreshed"
	auditEventCredentialInvalid    = "credential_invalidated"
	auditEventCredentialFetchError = "credential_fetch_failed"
)

// AuditErrorCode is the stable, non-sensitive error classification recorded on audit
// events.
type AuditErrorCode string

const (
	auditErrUnauthenticated       AuditErrorCode = "unauthenticated"
	auditErrForbidden             AuditErrorCode = "forbidden"
	auditErrInvalidGrant          AuditErrorCode = "invalid_grant"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrUpstreamConfig        AuditErrorCode = "upstream_configuration_missing"
	auditErrUpstreamTransport     AuditErrorCode = "upstream_transport"
	auditErrUpstreamRejected      AuditErrorCode = "upstream_rejected"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID int64,
	account string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		Account:   account,
		RequestID: requestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// credentialHooks feeds upstream cache activity into metrics and audit.
func (e *Engine) credentialHooks() credential.Hooks {
	return credential.Hooks{
		OnHit:  func() { e.metricInc(MetricCredentialHit) },
		OnMiss: func() { e.metricInc(MetricCredentialMiss) },
		OnFetched: func(tok credential.Token, stored, elapsed time.Duration) {
			e.metricInc(MetricCredentialFetch)
			e.metrics.Observe(MetricCredentialFetchLatency, elapsed)
			e.emitAudit(context.Background(), auditEventCredentialRefreshed, true, 0, "", nil, func() map[string]string {
				return map[string]string{
					"declared_ttl": tok.TTL.String(),
					"stored_ttl":   stored.String(),
				}
			})
		},
		OnFetchFailed: func(err error) {
			e.metricInc(MetricCredentialFetchFailure)
			e.emitAudit(context.Background(), auditEventCredentialFetchError, false, 0, "", err, nil)
		},
		OnInvalidated: func(deleted bool) {
			if deleted {
				e.metricInc(MetricCredentialInvalidated)
			}
			e.emitAudit(context.Background(), auditEventCredentialInvalid, true, 0, "", nil, func() map[string]string {
				if deleted {
					return map[string]string{"deleted": "true"}
				}
				return map[string]string{"deleted": "false"}
			})
		},
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var upstreamErr *credential.UpstreamError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrInvalidGrant):
		return auditErrInvalidGrant
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionStoreUnavailable), errors.Is(err, cache.ErrUnavailable):
		return auditErrUnavailable
	case errors.Is(err, credential.ErrConfigurationMissing):
		return auditErrUpstreamConfig
	case errors.Is(err, credential.ErrUpstreamTransport):
		return auditErrUpstreamTransport
	case errors.As(err, &upstreamErr):
		return auditErrUpstreamRejected
	default:
		return auditErrInternal
	}
}
