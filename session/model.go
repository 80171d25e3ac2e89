package session

import "time"

// Session is one authenticated administrative login.
type Session struct {
	Token     string
	SubjectID int64
	Account   string

	Roles       []string
	Permissions []string

	// IssuedAt and ExpiresAt are millisecond epoch timestamps.
	IssuedAt  int64
	ExpiresAt int64
}

// ExpiresAtTime returns ExpiresAt as a time.Time.
func (s *Session) ExpiresAtTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// IssuedAtTime returns IssuedAt as a time.Time.
func (s *Session) IssuedAtTime() time.Time {
	return time.UnixMilli(s.IssuedAt)
}

// Expired reports whether now is strictly past ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAt
}

// Remaining returns the lifetime left at now; negative once expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	return time.Duration(s.ExpiresAt-now.UnixMilli()) * time.Millisecond
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Roles = append([]string(nil), s.Roles...)
	out.Permissions = append([]string(nil), s.Permissions...)
	return &out
}
