package shared

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized indicates a missing or wrong API token.
var ErrUnauthorized = errors.New("unauthorized")

// TokenChecker verifies bearer tokens against a bcrypt hash.
// A checker with an empty hash accepts every request.
type TokenChecker struct {
	hash []byte
}

// NewTokenChecker builds a checker from a bcrypt hash.
func NewTokenChecker(hash string) (*TokenChecker, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return &TokenChecker{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &TokenChecker{hash: []byte(hash)}, nil
}

// Enabled reports whether a token is required.
func (c *TokenChecker) Enabled() bool {
	return c != nil && len(c.hash) > 0
}

// Check validates an Authorization header value.
func (c *TokenChecker) Check(header string) error {
	if !c.Enabled() {
		return nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(token)); err != nil {
		return ErrUnauthorized
	}
	return nil
}
