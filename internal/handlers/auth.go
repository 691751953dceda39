package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lric3/recipes/internal/auth"
	"github.com/lric3/recipes/internal/services"
	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

// AuthHandler provides registration, login, and current-user endpoints.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	userContext *services.UserContextService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, userContext *services.UserContextService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		userContext: userContext,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(auth.RequireIdentity).Get("/me", handler.Me)
	r.With(auth.RequireIdentity).Put("/me", handler.UpdateMe)
	r.With(auth.RequireIdentity).Delete("/me", handler.DeleteMe)
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	user, err := h.userService.Register(r.Context(), services.Registration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordMismatch):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.UsernameOrEmail = strings.TrimSpace(req.UsernameOrEmail)
	if req.UsernameOrEmail == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	result, err := h.authService.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userContext.CurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) || errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateMe changes the current user's display names.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.userService.UpdateNames(r.Context(), user.ID,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteMe removes the current user's account.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// currentUser resolves the acting user for handlers that mutate data.
func currentUser(r *http.Request, userContext *services.UserContextService, w http.ResponseWriter) (types.User, bool) {
	user, err := userContext.CurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) || errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load user")
		}
		return types.User{}, false
	}
	return user, true
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}
