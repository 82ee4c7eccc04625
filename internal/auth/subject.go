package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSubject = errors.New("token carries no subject")

// Subject extracts the user id ("sub", or "user_id" as a fallback) from the
// token payload WITHOUT verifying its signature.
//
// The result is only an opaque lookup key for services that authorize the
// request themselves. It must never be used for a local authorization
// decision; Verifier.Check is the only source of truth for that.
func Subject(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("decoding token payload: %w", err)
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}

	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}

	return "", ErrNoSubject
}
