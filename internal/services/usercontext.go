package services

import (
	"context"

	"github.com/lric3/recipes/internal/auth"
	"github.com/lric3/recipes/types"
)

// UserContextService resolves "who is making this request" for handlers.
// It reads the identity the interceptor attached to the request context;
// it never attaches one itself.
type UserContextService struct {
	users UserRepository
}

func NewUserContextService(users UserRepository) *UserContextService {
	return &UserContextService{users: users}
}

// CurrentUsername returns the authenticated username, or
// auth.ErrNotAuthenticated when no identity is attached.
func (s *UserContextService) CurrentUsername(ctx context.Context) (string, error) {
	return auth.CurrentUsername(ctx)
}

// CurrentUser resolves the full account of the request's identity.
// Fails with auth.ErrNotAuthenticated or store.ErrNotFound.
func (s *UserContextService) CurrentUser(ctx context.Context) (types.User, error) {
	username, err := auth.CurrentUsername(ctx)
	if err != nil {
		return types.User{}, err
	}
	return s.users.GetByUsername(ctx, username)
}

// CurrentUserID resolves the numeric id of the request's identity.
func (s *UserContextService) CurrentUserID(ctx context.Context) (int64, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
