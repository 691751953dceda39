package auth

import "context"

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the decoded, validated identity attached to a request once
// its bearer token has been verified. It lives only in the request
// context and is dropped when request processing ends.
type Identity struct {
	Username string
	Role     string
}

// WithIdentity returns a context carrying the given identity. At most one
// identity is attached per request; the interceptor checks FromContext
// before calling this.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// FromContext returns the identity attached to the context, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || identity.Username == "" {
		return Identity{}, false
	}
	return identity, true
}

// CurrentUsername returns the username of the request's identity, or
// ErrNotAuthenticated when none is attached.
func CurrentUsername(ctx context.Context) (string, error) {
	identity, ok := FromContext(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	return identity.Username, nil
}
