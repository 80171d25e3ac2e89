package session

import "time"

// DefaultRefreshThreshold is the remaining lifetime under which [ThresholdRefresh]
// extends a session.
const DefaultRefreshThreshold = 20 * time.Minute

// RefreshPolicy decides whether a valid session should have its expiry extended.
type RefreshPolicy interface {
	ShouldRefresh(remaining time.Duration) bool
}

// NeverRefresh keeps every session at its issued lifetime.
type NeverRefresh struct{}

// ShouldRefresh implements [RefreshPolicy].
func (NeverRefresh) ShouldRefresh(time.Duration) bool { return false }

// ThresholdRefresh extends sessions whose remaining lifetime is below Threshold.
// A non-positive Threshold uses [DefaultRefreshThreshold].
type ThresholdRefresh struct {
	Threshold time.Duration
}

// ShouldRefresh implements [RefreshPolicy].
func (p ThresholdRefresh) ShouldRefresh(remaining time.Duration) bool {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	return remaining >= 0 && remaining < threshold
}

// RefreshPolicyFunc adapts a function to [RefreshPolicy].
type RefreshPolicyFunc func(remaining time.Duration) bool

// ShouldRefresh implements [RefreshPolicy].
func (f RefreshPolicyFunc) ShouldRefresh(remaining time.Duration) bool { return f(remaining) }
