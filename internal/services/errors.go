package services

import "errors"

var (
	// ErrInvalidCredentials is returned on any login failure. It never
	// reveals whether the identifier or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when the acting user does not own the
	// resource being mutated.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyReviewed is returned when a user posts a second review
	// for the same recipe.
	ErrAlreadyReviewed = errors.New("recipe already reviewed")

	// Registration conflicts.
	ErrUsernameTaken    = errors.New("username already exists")
	ErrEmailTaken       = errors.New("email already exists")
	ErrPasswordMismatch = errors.New("password and confirmation do not match")
)
