// Package jwtx reads claims out of access tokens issued by the backend.
//
// The client never holds the backend's signing keys, so nothing here verifies
// signatures. Values read from a token are only good for display and logging;
// authorization decisions stay with the backend.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed reports a value that is not a parseable JWT.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrNoExpiry reports a token without an exp claim.
	ErrNoExpiry = errors.New("jwtx: token has no exp claim")
)

// Claims are the registered claims plus the fields simplejwt-style backends
// put into access tokens.
type Claims struct {
	jwt.RegisteredClaims

	TokenType string `json:"token_type,omitempty"`
	UserID    any    `json:"user_id,omitempty"`
}

// Peek decodes the claims of raw without verifying its signature.
func Peek(raw string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &claims, nil
}

// PeekExpiry returns the exp claim of raw.
func PeekExpiry(raw string) (time.Time, error) {
	claims, err := Peek(raw)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
