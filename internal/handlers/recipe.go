package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lric3/recipes/internal/auth"
	"github.com/lric3/recipes/internal/services"
	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

const (
	maxImageBytes      = 8 << 20
	maxMultipartMemory = 16 << 20
	formFieldImage     = "image"
	topListLimit       = 10
)

// RecipeHandler provides HTTP handlers for recipes.
type RecipeHandler struct {
	recipeService *services.RecipeService
	userContext   *services.UserContextService
}

// NewRecipeHandler constructs a handler with the provided services.
func NewRecipeHandler(recipeService *services.RecipeService, userContext *services.UserContextService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		userContext:   userContext,
	}
}

// RecipeRouter registers recipe routes, with review routes nested under
// each recipe, on the given router.
func RecipeRouter(r chi.Router, handler *RecipeHandler, reviewHandler *ReviewHandler) {
	r.Get("/", handler.ListRecipes)
	r.Get("/search", handler.SearchRecipes)
	r.Get("/filter", handler.FilterRecipes)
	r.Get("/top-rated", handler.TopRated)
	r.Get("/top-favorites", handler.TopFavorites)
	r.With(auth.RequireIdentity).Get("/my-recipes", handler.MyRecipes)
	r.With(auth.RequireIdentity).Post("/", handler.CreateRecipe)

	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", handler.GetRecipe)
		r.With(auth.RequireIdentity).Put("/", handler.UpdateRecipe)
		r.With(auth.RequireIdentity).Delete("/", handler.DeleteRecipe)
		r.With(auth.RequireIdentity).Post("/favorite", handler.Favorite)
		r.With(auth.RequireIdentity).Delete("/favorite", handler.Unfavorite)

		r.Get("/image", handler.GetImage)
		r.With(auth.RequireIdentity).Post("/image", handler.UploadImage)
		r.With(auth.RequireIdentity).Delete("/image", handler.DeleteImage)

		r.Route("/reviews", func(r chi.Router) {
			ReviewRouter(r, reviewHandler)
		})
	})
}

// ListRecipes returns public recipes, paginated.
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, store.RecipeFilter{PublicOnly: true})
}

// SearchRecipes returns public recipes whose title matches the query.
func (h *RecipeHandler) SearchRecipes(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title query is required")
		return
	}
	h.list(w, r, store.RecipeFilter{PublicOnly: true, Title: title})
}

// FilterRecipes narrows public recipes by cuisine, meal type, and
// difficulty, any combination.
func (h *RecipeHandler) FilterRecipes(w http.ResponseWriter, r *http.Request) {
	filter := store.RecipeFilter{
		PublicOnly: true,
		Cuisine:    strings.TrimSpace(r.URL.Query().Get("cuisine")),
		MealType:   strings.TrimSpace(r.URL.Query().Get("mealType")),
		Difficulty: strings.TrimSpace(r.URL.Query().Get("difficulty")),
	}
	if filter.MealType != "" && !types.ValidMealType(filter.MealType) {
		writeError(w, http.StatusBadRequest, "invalid meal type")
		return
	}
	if filter.Difficulty != "" && !types.ValidDifficulty(filter.Difficulty) {
		writeError(w, http.StatusBadRequest, "invalid difficulty")
		return
	}
	h.list(w, r, filter)
}

// MyRecipes returns the recipes owned by the current user, public or not.
func (h *RecipeHandler) MyRecipes(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}
	h.list(w, r, store.RecipeFilter{UserID: user.ID})
}

func (h *RecipeHandler) list(w http.ResponseWriter, r *http.Request, filter store.RecipeFilter) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.recipeService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	writeJSON(w, http.StatusOK, RecipeListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// TopRated returns the highest-rated public recipes.
func (h *RecipeHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeService.TopRated(r.Context(), topListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// TopFavorites returns the most-favorited public recipes.
func (h *RecipeHandler) TopFavorites(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeService.TopFavorites(r.Context(), topListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch recipe")
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	var req RecipeUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.recipeService.Create(r.Context(), req.toRecipe(0), user)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	var req RecipeUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.recipeService.Update(r.Context(), req.toRecipe(id), user)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "you can only update your own recipes")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	if err := h.recipeService.Delete(r.Context(), id, user); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "you can only delete your own recipes")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete recipe")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Favorite increments the recipe's favorite counter.
func (h *RecipeHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, h.recipeService.Favorite)
}

// Unfavorite decrements the recipe's favorite counter.
func (h *RecipeHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, h.recipeService.Unfavorite)
}

func (h *RecipeHandler) favorite(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := op(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores a recipe image from a multipart form.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		writeError(w, http.StatusBadRequest, "image too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	key, err := h.recipeService.AttachImage(r.Context(), id, user, file, header.Size, contentType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "recipe not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "you can only update your own recipes")
		default:
			writeError(w, http.StatusInternalServerError, "failed to store image")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"imageKey": key})
}

// GetImage streams the recipe image.
func (h *RecipeHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, err := h.recipeService.OpenImage(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch image")
		return
	}
	defer reader.Close()

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// DeleteImage removes the recipe image.
func (h *RecipeHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := currentUser(r, h.userContext, w)
	if !ok {
		return
	}

	if err := h.recipeService.RemoveImage(r.Context(), id, user); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "image not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "you can only update your own recipes")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete image")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecipeUpsertRequest is the JSON payload for creating or updating a
// recipe.
type RecipeUpsertRequest struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	PrepTime     int                 `json:"prepTime"`
	CookTime     int                 `json:"cookTime"`
	Servings     int                 `json:"servings"`
	Difficulty   string              `json:"difficulty"`
	CuisineType  string              `json:"cuisineType"`
	MealType     string              `json:"mealType"`
	Public       *bool               `json:"isPublic"`
	Ingredients  []types.Ingredient  `json:"ingredients"`
	Instructions []types.Instruction `json:"instructions"`
}

func (req RecipeUpsertRequest) toRecipe(id int64) types.Recipe {
	public := true
	if req.Public != nil {
		public = *req.Public
	}
	return types.Recipe{
		ID:           id,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		CuisineType:  strings.TrimSpace(req.CuisineType),
		MealType:     req.MealType,
		Public:       public,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	}
}

// RecipeListResponse is the paginated list response payload.
type RecipeListResponse struct {
	Items []types.Recipe `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}
