package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lric3/recipes/internal/auth"
	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult is the composed login response: a fresh bearer token, its
// expiry as actually embedded in the token, and a summary of the user.
type LoginResult struct {
	Token     string     `json:"token"`
	TokenType string     `json:"tokenType"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      types.User `json:"user"`
}

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	users UserRepository
	codec *auth.Codec
}

func NewAuthService(users UserRepository, codec *auth.Codec) *AuthService {
	return &AuthService{users: users, codec: codec}
}

// Login locates the user by username or email, verifies the password,
// and issues a token. Every mismatch surfaces as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (LoginResult, error) {
	user, err := s.verify(ctx, usernameOrEmail, password)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.codec.Issue(user.Username)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	// The reported expiry is decoded from the token itself so it always
	// matches what the client holds.
	expiresAt, err := s.codec.Expiration(token)
	if err != nil {
		return LoginResult{}, fmt.Errorf("decode token expiry: %w", err)
	}

	user, err = s.users.GetByUsername(ctx, user.Username)
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user summary: %w", err)
	}

	return LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *AuthService) verify(ctx context.Context, usernameOrEmail, password string) (types.User, error) {
	user, err := s.users.GetByUsername(ctx, usernameOrEmail)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.users.GetByEmail(ctx, usernameOrEmail)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}
