// Package common defines shared constants and sentinel errors used across
// the client layers of Health-UP. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Auth errors (missing or malformed bearer token).
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoTokenExpiry is returned when a token carries no exp claim.
	ErrNoTokenExpiry = errors.New("token has no expiry")
)
