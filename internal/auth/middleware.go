package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

// bearerPrefix is matched case-sensitively with a single space separator.
// Anything else counts as "no credential supplied".
const bearerPrefix = "Bearer "

// UserFinder resolves a token subject to a stored user account.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

// Middleware returns the request identity interceptor. It runs once per
// request: it extracts the bearer token, decodes it, re-validates it
// against the resolved user, and attaches the identity to the request
// context. A missing or garbage credential is not an error at this layer;
// the request proceeds anonymously and downstream authorization decides.
//
// The one exception is a verified token naming a user the store no longer
// has: that indicates a stale secret rotation or data corruption, so the
// request fails loudly instead of passing through.
func Middleware(codec *Codec, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := header[len(bearerPrefix):]

			subject, err := codec.Subject(tokenString)
			if err != nil {
				// Malformed, tampered, or expired: proceed anonymously.
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByUsername(r.Context(), subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					log.Printf("auth: verified token for unknown user %q", subject)
					writeMiddlewareError(w, http.StatusInternalServerError, "failed to resolve user")
					return
				}
				writeMiddlewareError(w, http.StatusInternalServerError, "failed to resolve user")
				return
			}

			valid, err := codec.ValidFor(tokenString, user)
			if err != nil || !valid {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				Username: user.Username,
				Role:     user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that reach it without an attached
// identity. Routes stack it after Middleware.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			writeMiddlewareError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeMiddlewareError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
