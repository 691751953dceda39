package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lric3/recipes/config"
	"github.com/lric3/recipes/internal/auth"
	"github.com/lric3/recipes/internal/services"
	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

// fakeRecipes is an in-memory services.RecipeRepository.
type fakeRecipes struct {
	recipes map[int64]types.Recipe
	nextID  int64
}

func newFakeRecipes() *fakeRecipes {
	return &fakeRecipes{recipes: map[int64]types.Recipe{}, nextID: 1}
}

func (f *fakeRecipes) List(_ context.Context, filter store.RecipeFilter, offset, limit int) ([]types.Recipe, int, error) {
	var matched []types.Recipe
	for _, recipe := range f.recipes {
		if filter.PublicOnly && !recipe.Public {
			continue
		}
		if filter.UserID != 0 && recipe.UserID != filter.UserID {
			continue
		}
		matched = append(matched, recipe)
	}
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeRecipes) TopRated(_ context.Context, _ int) ([]types.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipes) TopFavorites(_ context.Context, _ int) ([]types.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipes) Get(_ context.Context, id int64) (types.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	return recipe, nil
}

func (f *fakeRecipes) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.ID = f.nextID
	f.nextID++
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now()
	}
	f.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (f *fakeRecipes) Update(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	if _, ok := f.recipes[recipe.ID]; !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	f.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (f *fakeRecipes) Delete(_ context.Context, id int64) error {
	if _, ok := f.recipes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipes) SetRating(_ context.Context, id int64, rating float64, count int) error {
	recipe, ok := f.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	recipe.Rating = rating
	recipe.RatingCount = count
	f.recipes[id] = recipe
	return nil
}

func (f *fakeRecipes) AddFavorite(_ context.Context, id int64, delta int) error {
	recipe, ok := f.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	recipe.FavoriteCount += delta
	if recipe.FavoriteCount < 0 {
		recipe.FavoriteCount = 0
	}
	f.recipes[id] = recipe
	return nil
}

func (f *fakeRecipes) SetImageKey(_ context.Context, id int64, key string) error {
	recipe, ok := f.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	recipe.ImageKey = key
	f.recipes[id] = recipe
	return nil
}

// fakeReviews is an in-memory services.ReviewRepository.
type fakeReviews struct {
	reviews map[int64]types.Review
	nextID  int64
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{reviews: map[int64]types.Review{}, nextID: 1}
}

func (f *fakeReviews) Get(_ context.Context, id int64) (types.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (f *fakeReviews) ListByRecipe(_ context.Context, recipeID int64) ([]types.Review, error) {
	var out []types.Review
	for _, review := range f.reviews {
		if review.RecipeID == recipeID {
			out = append(out, review)
		}
	}
	return out, nil
}

func (f *fakeReviews) ExistsByRecipeAndUser(_ context.Context, recipeID, userID int64) (bool, error) {
	for _, review := range f.reviews {
		if review.RecipeID == recipeID && review.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviews) Create(_ context.Context, review types.Review) (types.Review, error) {
	review.ID = f.nextID
	f.nextID++
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviews) Update(_ context.Context, review types.Review) (types.Review, error) {
	if _, ok := f.reviews[review.ID]; !ok {
		return types.Review{}, store.ErrNotFound
	}
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviews) Delete(_ context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviews) AggregateForRecipe(_ context.Context, recipeID int64) (float64, int, error) {
	var sum, count int
	for _, review := range f.reviews {
		if review.RecipeID == recipeID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// newAPITestRouter wires the whole API surface against in-memory repos,
// mirroring the server's route layout.
func newAPITestRouter(t *testing.T) chi.Router {
	t.Helper()

	users := newFakeUsers()
	recipes := newFakeRecipes()
	reviews := newFakeReviews()
	codec := auth.NewCodec(config.JWTConfig{Secret: "test-secret", Lifetime: time.Hour})

	userService := services.NewUserService(users)
	authService := services.NewAuthService(users, codec)
	userContext := services.NewUserContextService(users)
	recipeService := services.NewRecipeService(recipes, nil, nil)
	reviewService := services.NewReviewService(reviews, recipes, nil)

	authHandler := NewAuthHandler(authService, userService, userContext)
	recipeHandler := NewRecipeHandler(recipeService, userContext)
	reviewHandler := NewReviewHandler(reviewService, userContext)

	r := chi.NewRouter()
	r.Use(auth.Middleware(codec, users))
	r.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler)
	})
	r.Route("/recipes", func(r chi.Router) {
		RecipeRouter(r, recipeHandler, reviewHandler)
	})
	return r
}

// registerAndLogin creates an account and returns its bearer token.
func registerAndLogin(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	body := fmt.Sprintf(`{
		"username": %q,
		"email": "%s@example.com",
		"password": "s3cret",
		"confirmPassword": "s3cret"
	}`, username, username)
	recorder := doJSON(t, router, http.MethodPost, "/auth/register", body, "")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d: %s", username, recorder.Code, recorder.Body)
	}

	recorder = doJSON(t, router, http.MethodPost, "/auth/login",
		fmt.Sprintf(`{"usernameOrEmail":%q,"password":"s3cret"}`, username), "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d: %s", username, recorder.Code, recorder.Body)
	}
	var result services.LoginResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return result.Token
}

const carbonaraBody = `{
	"title": "Carbonara",
	"description": "Roman classic",
	"prepTime": 10,
	"cookTime": 20,
	"servings": 4,
	"difficulty": "MEDIUM",
	"cuisineType": "Italian",
	"mealType": "DINNER",
	"ingredients": [{"name": "Spaghetti", "quantity": 400, "unit": "g"}],
	"instructions": [{"stepNumber": 1, "text": "Boil the pasta."}]
}`

func createRecipe(t *testing.T, router http.Handler, token string) types.Recipe {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/recipes/", carbonaraBody, token)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create recipe: status = %d: %s", recorder.Code, recorder.Body)
	}
	var recipe types.Recipe
	if err := json.Unmarshal(recorder.Body.Bytes(), &recipe); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	return recipe
}

func TestRecipeLifecycle(t *testing.T) {
	router := newAPITestRouter(t)
	token := registerAndLogin(t, router, "alice")

	// Unauthenticated create is rejected.
	recorder := doJSON(t, router, http.MethodPost, "/recipes/", carbonaraBody, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	recipe := createRecipe(t, router, token)
	if recipe.ID == 0 || recipe.UserID == 0 || recipe.Title != "Carbonara" {
		t.Fatalf("recipe = %+v", recipe)
	}
	if !recipe.Public {
		t.Fatal("recipe should default to public")
	}

	// Visible in the public list and individually.
	recorder = doJSON(t, router, http.MethodGet, "/recipes/", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list: status = %d", recorder.Code)
	}
	var list RecipeListResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("list = %+v", list)
	}

	path := fmt.Sprintf("/recipes/%d", recipe.ID)
	recorder = doJSON(t, router, http.MethodGet, path, "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("get: status = %d", recorder.Code)
	}

	// A review from another user gives the recipe a rating the update
	// must not wipe out.
	reviewer := registerAndLogin(t, router, "bob")
	recorder = doJSON(t, router, http.MethodPost, path+"/reviews/", `{"rating":4,"comment":"solid"}`, reviewer)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("review: status = %d: %s", recorder.Code, recorder.Body)
	}

	// Update keeps the stored ownership, aggregates and timestamps even
	// though the request body carries none of them.
	recorder = doJSON(t, router, http.MethodPut, path, carbonaraBody, token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("update: status = %d: %s", recorder.Code, recorder.Body)
	}
	var updated types.Recipe
	if err := json.Unmarshal(recorder.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated recipe: %v", err)
	}
	if updated.UserID != recipe.UserID {
		t.Fatalf("owner after update = %d, want %d", updated.UserID, recipe.UserID)
	}
	if updated.Rating != 4 || updated.RatingCount != 1 {
		t.Fatalf("aggregate after update = (%v, %d), want (4, 1)", updated.Rating, updated.RatingCount)
	}
	if updated.CreatedAt.IsZero() || !updated.CreatedAt.Equal(recipe.CreatedAt) {
		t.Fatalf("createdAt after update = %v, want %v", updated.CreatedAt, recipe.CreatedAt)
	}

	recorder = doJSON(t, router, http.MethodDelete, path, "", token)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d: %s", recorder.Code, recorder.Body)
	}
	recorder = doJSON(t, router, http.MethodGet, path, "", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}

func TestRecipeOwnershipEnforced(t *testing.T) {
	router := newAPITestRouter(t)
	owner := registerAndLogin(t, router, "alice")
	stranger := registerAndLogin(t, router, "bob")

	recipe := createRecipe(t, router, owner)
	path := fmt.Sprintf("/recipes/%d", recipe.ID)

	recorder := doJSON(t, router, http.MethodPut, path, carbonaraBody, stranger)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("update by stranger: status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
	recorder = doJSON(t, router, http.MethodDelete, path, "", stranger)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("delete by stranger: status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
}

func TestFavoriteEndpoints(t *testing.T) {
	router := newAPITestRouter(t)
	token := registerAndLogin(t, router, "alice")
	recipe := createRecipe(t, router, token)
	path := fmt.Sprintf("/recipes/%d/favorite", recipe.ID)

	recorder := doJSON(t, router, http.MethodPost, path, "", token)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("favorite: status = %d: %s", recorder.Code, recorder.Body)
	}

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/recipes/%d", recipe.ID), "", "")
	var stored types.Recipe
	if err := json.Unmarshal(recorder.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	if stored.FavoriteCount != 1 {
		t.Fatalf("favorite count = %d, want 1", stored.FavoriteCount)
	}

	recorder = doJSON(t, router, http.MethodDelete, path, "", token)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unfavorite: status = %d", recorder.Code)
	}
}

func TestReviewEndpoints(t *testing.T) {
	router := newAPITestRouter(t)
	author := registerAndLogin(t, router, "alice")
	reviewer := registerAndLogin(t, router, "bob")

	recipe := createRecipe(t, router, author)
	reviewsPath := fmt.Sprintf("/recipes/%d/reviews/", recipe.ID)

	recorder := doJSON(t, router, http.MethodPost, reviewsPath, `{"rating":5,"comment":"great"}`, reviewer)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create review: status = %d: %s", recorder.Code, recorder.Body)
	}
	var review types.Review
	if err := json.Unmarshal(recorder.Body.Bytes(), &review); err != nil {
		t.Fatalf("decode review: %v", err)
	}

	// A second review by the same user conflicts.
	recorder = doJSON(t, router, http.MethodPost, reviewsPath, `{"rating":4,"comment":"again"}`, reviewer)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate review: status = %d, want %d", recorder.Code, http.StatusConflict)
	}

	// The recipe aggregate reflects the review.
	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/recipes/%d", recipe.ID), "", "")
	var stored types.Recipe
	if err := json.Unmarshal(recorder.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	if stored.Rating != 5 || stored.RatingCount != 1 {
		t.Fatalf("aggregate = (%v, %d), want (5, 1)", stored.Rating, stored.RatingCount)
	}

	// Only the author may delete.
	reviewPath := fmt.Sprintf("/recipes/%d/reviews/%d", recipe.ID, review.ID)
	recorder = doJSON(t, router, http.MethodDelete, reviewPath, "", author)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("delete by non-author: status = %d, want %d", recorder.Code, http.StatusForbidden)
	}
	recorder = doJSON(t, router, http.MethodDelete, reviewPath, "", reviewer)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete by author: status = %d: %s", recorder.Code, recorder.Body)
	}

	recorder = doJSON(t, router, http.MethodGet, reviewsPath, "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list reviews: status = %d", recorder.Code)
	}
}
