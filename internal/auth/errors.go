package auth

import "errors"

// Decode failures for a token string. Callers that only need "is this
// acceptable" may treat all three as rejection; the sentinels stay
// distinct so call sites and tests can tell them apart.
var (
	// ErrTokenMalformed is returned when a token string cannot be parsed
	// as a compact JWT.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenSignatureInvalid is returned when the MAC does not verify
	// against the configured secret.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")

	// ErrTokenExpired is returned when the token's expiration has passed.
	ErrTokenExpired = errors.New("token expired")
)

// ErrNotAuthenticated is returned when the current request context has
// no identity attached.
var ErrNotAuthenticated = errors.New("not authenticated")
