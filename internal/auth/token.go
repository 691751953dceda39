package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lric3/recipes/config"
	"github.com/lric3/recipes/types"
)

// Codec issues and validates signed bearer tokens. It is stateless: the
// secret and lifetime are fixed at construction and every operation is a
// pure function of its inputs.
type Codec struct {
	secret   []byte
	lifetime time.Duration

	// now is overridable in tests.
	now func() time.Time
}

// NewCodec constructs a Codec from the process-wide JWT configuration.
func NewCodec(cfg config.JWTConfig) *Codec {
	return &Codec{
		secret:   []byte(cfg.Secret),
		lifetime: cfg.Lifetime,
		now:      time.Now,
	}
}

// Issue creates a signed token for the given username. The token carries
// the username as subject plus issued-at and expiration claims.
func (c *Codec) Issue(username string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Subject parses and verifies the token and returns the embedded subject.
// Fails with ErrTokenMalformed, ErrTokenSignatureInvalid, or
// ErrTokenExpired.
func (c *Codec) Subject(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, c.keyFunc,
		jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", mapTokenError(err)
	}
	if !token.Valid {
		return "", ErrTokenSignatureInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

// Expiration returns the expiration instant embedded in the token. The
// signature is still verified, but an expired token is readable: callers
// need the expiry precisely to report that it has passed.
func (c *Codec) Expiration(tokenString string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, c.keyFunc,
		jwt.WithTimeFunc(c.now), jwt.WithoutClaimsValidation())
	if err != nil {
		return time.Time{}, mapTokenError(err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenMalformed
	}
	return claims.ExpiresAt.Time, nil
}

// ValidFor reports whether the token is acceptable as a credential for
// the given user: signature verifies, not expired, and the subject equals
// the username exactly. A subject mismatch is an ordinary false; every
// decode failure, including expiry, propagates so callers on trusted
// paths keep the diagnostic.
func (c *Codec) ValidFor(tokenString string, user types.User) (bool, error) {
	subject, err := c.Subject(tokenString)
	if err != nil {
		return false, err
	}
	return subject == user.Username, nil
}

// Valid reports whether the token decodes, verifies, and has not expired.
// It never fails: any decode failure of any kind is false. This is the
// entry point for request-time validation of arbitrary external input.
func (c *Codec) Valid(tokenString string) bool {
	_, err := c.Subject(tokenString)
	return err == nil
}

func (c *Codec) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("invalid signing method")
	}
	return c.secret, nil
}

// mapTokenError collapses jwt parse failures onto the package sentinels
// without losing which of the three kinds occurred.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
