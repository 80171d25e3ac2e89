package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CurrentSchemaVersion is the record version written by Encode.
const CurrentSchemaVersion = 1

// ErrSessionCorrupt is returned when a stored record cannot be decoded or violates the
// record invariants.
var ErrSessionCorrupt = errors.New("session record corrupt")

type record struct {
	Version     int      `json:"v"`
	SubjectID   int64    `json:"uid"`
	Account     string   `json:"account"`
	Roles       string   `json:"roles"`
	Permissions []string `json:"perms"`
	IssuedAt    int64    `json:"iat"`
	ExpiresAt   int64    `json:"exp"`
}

// Encode serializes s for storage. Roles are joined with commas, so role identifiers must
// not contain one.
func Encode(s *Session) (string, error) {
	if s == nil {
		return "", errors.New("nil session")
	}
	if s.ExpiresAt <= s.IssuedAt {
		return "", errors.New("session expires_at must be after issued_at")
	}
	for _, r := range s.Roles {
		if r == "" || strings.Contains(r, ",") {
			return "", fmt.Errorf("invalid role identifier %q", r)
		}
	}

	perms := s.Permissions
	if perms == nil {
		perms = []string{}
	}

	data, err := json.Marshal(record{
		Version:     CurrentSchemaVersion,
		SubjectID:   s.SubjectID,
		Account:     s.Account,
		Roles:       strings.Join(s.Roles, ","),
		Permissions: perms,
		IssuedAt:    s.IssuedAt,
		ExpiresAt:   s.ExpiresAt,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stored record. The token is not part of the record; callers set it.
func Decode(data string) (*Session, error) {
	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	if rec.Version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported session schema version %d", ErrSessionCorrupt, rec.Version)
	}
	if rec.ExpiresAt <= rec.IssuedAt {
		return nil, fmt.Errorf("%w: expires_at not after issued_at", ErrSessionCorrupt)
	}

	s := &Session{
		SubjectID:   rec.SubjectID,
		Account:     rec.Account,
		Permissions: rec.Permissions,
		IssuedAt:    rec.IssuedAt,
		ExpiresAt:   rec.ExpiresAt,
	}
	if rec.Roles != "" {
		s.Roles = strings.Split(rec.Roles, ",")
	}
	if s.Permissions == nil {
		s.Permissions = []string{}
	}
	return s, nil
}
