// Package common contains shared constants and sentinel errors used across
// Health-UP client components.
package common

const (
	// AuthorizationHeaderName is the HTTP header used to carry the bearer
	// token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token value in AuthorizationHeaderName.
	BearerPrefix = "Bearer "

	// UserStorageKey is the well-known key the serialized session record is
	// persisted under.
	UserStorageKey = "user"

	// AuthPath is the authentication entry point. Protected locations redirect
	// here when no session is active.
	AuthPath = "/auth"
)
