package services

import (
	"context"

	"github.com/lric3/recipes/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int64) error
}

// Registration carries the fields of a sign-up request.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new account with the USER role. Username and email
// must be unused; the password must match its confirmation.
func (s *UserService) Register(ctx context.Context, reg Registration) (types.User, error) {
	if reg.Password != reg.ConfirmPassword {
		return types.User{}, ErrPasswordMismatch
	}

	taken, err := s.repo.ExistsByUsername(ctx, reg.Username)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, ErrUsernameTaken
	}

	taken, err = s.repo.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Role:         types.RoleUser,
		PasswordHash: string(hashed),
	})
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateNames changes the user's display names only.
func (s *UserService) UpdateNames(ctx context.Context, id int64, firstName, lastName string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	user.FirstName = firstName
	user.LastName = lastName
	return s.repo.Update(ctx, user)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
