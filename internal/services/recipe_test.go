package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

// fakeRecipeRepo is an in-memory RecipeRepository for service tests.
type fakeRecipeRepo struct {
	recipes map[int64]types.Recipe
	nextID  int64
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: map[int64]types.Recipe{}, nextID: 1}
}

func (f *fakeRecipeRepo) List(_ context.Context, filter store.RecipeFilter, offset, limit int) ([]types.Recipe, int, error) {
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

func (f *fakeRecipeRepo) TopRated(_ context.Context, _ int) ([]types.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipeRepo) TopFavorites(_ context.Context, _ int) ([]types.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipeRepo) Get(_ context.Context, id int64) (types.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	return recipe, nil
}

func (f *fakeRecipeRepo) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.ID = f.nextID
	f.nextID++
	f.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (f *fakeRecipeRepo) Update(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	if _, ok := f.recipes[recipe.ID]; !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	f.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (f *fakeRecipeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.recipes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepo) SetRating(_ context.Context, id int64, rating float64, count int) error {
	recipe, ok := f.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	recipe.Rating = rating
	recipe.RatingCount = count
	f.recipes[id] = recipe
	return nil
}

func (f *fakeRecipeRepo) AddFavorite(_ context.Context, id int64, delta int) error {
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

func (f *fakeRecipeRepo) SetImageKey(_ context.Context, id int64, key string) error {
	recipe, ok := f.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	recipe.ImageKey = key
	f.recipes[id] = recipe
	return nil
}

func TestRecipeCreateResetsAggregates(t *testing.T) {
	repo := newFakeRecipeRepo()
	service := NewRecipeService(repo, nil, nil)

	created, err := service.Create(context.Background(), types.Recipe{
		Title:         "Carbonara",
		Rating:        4.9,
		RatingCount:   12,
		FavoriteCount: 7,
	}, types.User{ID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.UserID != 1 {
		t.Fatalf("owner = %d, want 1", created.UserID)
	}
	if created.Rating != 0 || created.RatingCount != 0 || created.FavoriteCount != 0 {
		t.Fatalf("aggregates not reset: %+v", created)
	}
}

func TestRecipeCreateValidation(t *testing.T) {
	service := NewRecipeService(newFakeRecipeRepo(), nil, nil)
	ctx := context.Background()
	owner := types.User{ID: 1}

	if _, err := service.Create(ctx, types.Recipe{}, owner); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := service.Create(ctx, types.Recipe{Title: "x", Difficulty: "TRIVIAL"}, owner); err == nil {
		t.Fatal("expected error for unknown difficulty")
	}
	if _, err := service.Create(ctx, types.Recipe{Title: "x", MealType: "BRUNCH"}, owner); err == nil {
		t.Fatal("expected error for unknown meal type")
	}
}

func TestRecipeMutationAuthorization(t *testing.T) {
	repo := newFakeRecipeRepo()
	service := NewRecipeService(repo, nil, nil)
	ctx := context.Background()

	owner := types.User{ID: 1, Role: types.RoleUser}
	stranger := types.User{ID: 2, Role: types.RoleUser}
	admin := types.User{ID: 3, Role: types.RoleAdmin}

	created, err := service.Create(ctx, types.Recipe{Title: "Carbonara"}, owner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Description = "updated"
	if _, err := service.Update(ctx, created, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Update by stranger = %v, want ErrForbidden", err)
	}
	if _, err := service.Update(ctx, created, owner); err != nil {
		t.Fatalf("Update by owner: %v", err)
	}
	if _, err := service.Update(ctx, created, admin); err != nil {
		t.Fatalf("Update by admin: %v", err)
	}

	if err := service.Delete(ctx, created.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete by stranger = %v, want ErrForbidden", err)
	}
	if err := service.Delete(ctx, created.ID, admin); err != nil {
		t.Fatalf("Delete by admin: %v", err)
	}
}

func TestRecipeUpdatePreservesStoredFields(t *testing.T) {
	repo := newFakeRecipeRepo()
	service := NewRecipeService(repo, nil, nil)
	ctx := context.Background()

	owner := types.User{ID: 7, Role: types.RoleUser}
	created, err := service.Create(ctx, types.Recipe{Title: "Carbonara"}, owner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	seeded := created
	seeded.Rating = 4.5
	seeded.RatingCount = 2
	seeded.FavoriteCount = 3
	seeded.ImageKey = "recipes/7/image"
	seeded.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.recipes[seeded.ID] = seeded

	// The request payload carries only the editable fields, as a decoded
	// HTTP body would.
	updated, err := service.Update(ctx, types.Recipe{
		ID:          created.ID,
		Title:       "Carbonara Updated",
		Description: "now with guanciale",
	}, owner)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Title != "Carbonara Updated" || updated.Description != "now with guanciale" {
		t.Fatalf("editable fields not applied: %+v", updated)
	}
	if updated.UserID != owner.ID {
		t.Fatalf("owner = %d, want %d", updated.UserID, owner.ID)
	}
	if updated.Rating != 4.5 || updated.RatingCount != 2 || updated.FavoriteCount != 3 {
		t.Fatalf("aggregates lost: %+v", updated)
	}
	if updated.ImageKey != seeded.ImageKey {
		t.Fatalf("image key = %q, want %q", updated.ImageKey, seeded.ImageKey)
	}
	if !updated.CreatedAt.Equal(seeded.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", updated.CreatedAt, seeded.CreatedAt)
	}

	// The stored record must still belong to the owner afterwards.
	if err := service.Delete(ctx, created.ID, owner); err != nil {
		t.Fatalf("Delete by owner after update: %v", err)
	}
}

func TestRecipeFavoriteClampsAtZero(t *testing.T) {
	repo := newFakeRecipeRepo()
	service := NewRecipeService(repo, nil, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, types.Recipe{Title: "Carbonara"}, types.User{ID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := service.Favorite(ctx, created.ID); err != nil {
		t.Fatalf("Favorite: %v", err)
	}
	if err := service.Unfavorite(ctx, created.ID); err != nil {
		t.Fatalf("Unfavorite: %v", err)
	}
	if err := service.Unfavorite(ctx, created.ID); err != nil {
		t.Fatalf("Unfavorite: %v", err)
	}

	stored, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.FavoriteCount != 0 {
		t.Fatalf("favorite count = %d, want 0", stored.FavoriteCount)
	}
}

func TestRecipeListClampsLimit(t *testing.T) {
	repo := newFakeRecipeRepo()
	service := NewRecipeService(repo, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := service.Create(ctx, types.Recipe{Title: "r", Public: true}, types.User{ID: 1}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	recipes, total, err := service.List(ctx, store.RecipeFilter{PublicOnly: true}, 0, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(recipes) != 2 {
		t.Fatalf("len = %d, want 2", len(recipes))
	}
}
