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
)

// ReviewHandler provides HTTP handlers for recipe reviews.
type ReviewHandler struct {
	reviewService *services.ReviewService
	userContext   *services.UserContextService
}

// NewReviewHandler constructs a handler with the provided services.
func NewReviewHandler(reviewService *services.ReviewService, userContext *services.UserContextService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		userContext:   userContext,
	}
}

// ReviewRouter registers review routes nested under a recipe.
func ReviewRouter(r chi.Router, handler *ReviewHandler) {
	r.Get("/", handler.ListReviews)
	r.With(auth.RequireIdentity).Post("/", handler.CreateReview)

	r.Route("/{reviewID}", func(r chi.Router) {
		r.Get("/", handler.GetReview)
		r.With(auth.RequireIdentity).Put("/", handler.UpdateReview)
		r.With(auth.RequireIdentity).Delete("/", handler.DeleteReview)
	})
}

// ListReviews returns all reviews of a recipe.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reviews, err := h.reviewService.ListByRecipe(r.Context(), recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch review")
		return
	}

	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	recipeID, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	review, err := h.reviewService.Create(r.Context(), recipeID, user, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrAlreadyReviewed):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	review, err := h.reviewService.Update(r.Context(), id, user, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "review not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "you can only update your own reviews")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	if err := h.reviewService.Delete(r.Context(), id, user); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "review not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "you can only delete your own reviews")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete review")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReviewRequest is the JSON payload for creating or updating a review.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
