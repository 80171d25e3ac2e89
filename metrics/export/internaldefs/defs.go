package internaldefs

import (
	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
)

// Def names one engine metric for export.
type Def struct {
	ID   tyadmin.MetricID
	Name string
	Help string
}

// Audit dispatcher counters are exported alongside the engine counters.
const (
	AuditDroppedName = "tyadmin_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

	AuditSinkPanicsName = "tyadmin_audit_sink_panics_total"
	AuditSinkPanicsHelp = "Audit deliveries lost to a panicking sink."
)

var CounterDefs = []Def{
	{ID: tyadmin.MetricSessionIssued, Name: "tyadmin_session_issued_total", Help: "Issued operator sessions."},
	{ID: tyadmin.MetricSessionIssueFailure, Name: "tyadmin_session_issue_failure_total", Help: "Failed session issues."},
	{ID: tyadmin.MetricValidateValid, Name: "tyadmin_validate_valid_total", Help: "Validations that found a live session."},
	{ID: tyadmin.MetricValidateExpired, Name: "tyadmin_validate_expired_total", Help: "Validations that found an expired session."},
	{ID: tyadmin.MetricValidateUnknown, Name: "tyadmin_validate_unknown_total", Help: "Validations of absent, malformed or unreadable tokens."},
	{ID: tyadmin.MetricValidateStoreFailure, Name: "tyadmin_validate_store_failure_total", Help: "Validations that failed to reach the session store."},
	{ID: tyadmin.MetricSessionRefreshed, Name: "tyadmin_session_refreshed_total", Help: "Session lifetime extensions."},
	{ID: tyadmin.MetricSessionRefreshFailure, Name: "tyadmin_session_refresh_failure_total", Help: "Failed session lifetime extensions."},
	{ID: tyadmin.MetricLogout, Name: "tyadmin_logout_total", Help: "Logout operations."},
	{ID: tyadmin.MetricAuthorizationGranted, Name: "tyadmin_authorization_granted_total", Help: "Granted permission checks."},
	{ID: tyadmin.MetricAuthorizationDenied, Name: "tyadmin_authorization_denied_total", Help: "Denied permission checks."},
	{ID: tyadmin.MetricCredentialHit, Name: "tyadmin_credential_hit_total", Help: "Upstream token reads served from cache."},
	{ID: tyadmin.MetricCredentialMiss, Name: "tyadmin_credential_miss_total", Help: "Upstream token reads that missed the cache."},
	{ID: tyadmin.MetricCredentialFetch, Name: "tyadmin_credential_fetch_total", Help: "Upstream token fetches."},
	{ID: tyadmin.MetricCredentialFetchFailure, Name: "tyadmin_credential_fetch_failure_total", Help: "Failed upstream token fetches."},
	{ID: tyadmin.MetricCredentialInvalidated, Name: "tyadmin_credential_invalidated_total", Help: "Cached upstream tokens removed after rejection."},
	{ID: tyadmin.MetricCredentialStaleRetry, Name: "tyadmin_credential_stale_retry_total", Help: "Upstream calls retried after a stale-token rejection."},
}

var HistogramDefs = []Def{
	{ID: tyadmin.MetricValidateLatency, Name: "tyadmin_validate_latency_seconds", Help: "Session validation latency."},
	{ID: tyadmin.MetricCredentialFetchLatency, Name: "tyadmin_credential_fetch_latency_seconds", Help: "Upstream token fetch latency."},
}

// BucketCount is the engine's bucket count per latency histogram, +Inf included.
const BucketCount = 8

// HistogramUpperBounds are the finite bucket bounds in seconds; the last engine bucket is
// +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets pads or truncates a snapshot histogram to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals; the last entry is the
// sample count.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, n := range raw {
		running += n
		out[i] = running
	}
	return out
}
