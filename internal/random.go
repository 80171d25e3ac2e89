package internal

import (
	"strings"

	"github.com/google/uuid"
)

// SessionTokenLength is the length of a rendered session token.
const SessionTokenLength = 32

// NewSessionToken returns a random v4 UUID rendered as 32 lowercase hex characters.
func NewSessionToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// IsSessionToken reports whether s has the shape of a token from [NewSessionToken].
func IsSessionToken(s string) bool {
	if len(s) != SessionTokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
