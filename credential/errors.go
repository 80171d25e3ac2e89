package credential

import (
	"errors"
	"fmt"
)

// DefaultStaleCode is the upstream error code meaning the presented access token is
// invalid or expired.
const DefaultStaleCode = 40001

var (
	// ErrConfigurationMissing means the upstream client identifier or secret is not set.
	ErrConfigurationMissing = errors.New("upstream credential configuration missing")
	// ErrUpstreamTransport wraps network failures, timeouts, non-2xx statuses and
	// unreadable upstream responses.
	ErrUpstreamTransport = errors.New("upstream transport failure")
	// ErrNotCached means a token was fetched but could not be written to the cache. The
	// fetched token is not returned.
	ErrNotCached = errors.New("upstream credential not cached")
	// ErrStale can be returned (or wrapped) by caller operations to request a refresh.
	ErrStale = errors.New("upstream credential stale")
)

// UpstreamError is a well-formed upstream response carrying a non-zero error code.
type UpstreamError struct {
	Code    int
	Message string
	Stale   bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Code, e.Message)
}

// Retryable reports whether a fresh token may resolve the failure.
func (e *UpstreamError) Retryable() bool {
	return e != nil && e.Stale
}

// NewUpstreamError classifies code against staleCode. A non-positive staleCode selects
// [DefaultStaleCode].
func NewUpstreamError(code int, message string, staleCode int) *UpstreamError {
	if staleCode <= 0 {
		staleCode = DefaultStaleCode
	}
	return &UpstreamError{Code: code, Message: message, Stale: code == staleCode}
}

// IsStale reports whether err signals a rejected access token.
func IsStale(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStale) {
		return true
	}
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Retryable()
}
