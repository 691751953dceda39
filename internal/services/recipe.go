package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lric3/recipes/internal/events"
	"github.com/lric3/recipes/internal/storage"
	"github.com/lric3/recipes/internal/store"
	"github.com/lric3/recipes/types"
)

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	List(ctx context.Context, filter store.RecipeFilter, offset, limit int) ([]types.Recipe, int, error)
	TopRated(ctx context.Context, limit int) ([]types.Recipe, error)
	TopFavorites(ctx context.Context, limit int) ([]types.Recipe, error)
	Get(ctx context.Context, id int64) (types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Delete(ctx context.Context, id int64) error
	SetRating(ctx context.Context, id int64, rating float64, count int) error
	AddFavorite(ctx context.Context, id int64, delta int) error
	SetImageKey(ctx context.Context, id int64, key string) error
}

// RecipeService encapsulates recipe use-cases.
type RecipeService struct {
	repo   RecipeRepository
	images storage.ObjectStorage
	events *events.Publisher
}

func NewRecipeService(repo RecipeRepository, images storage.ObjectStorage, publisher *events.Publisher) *RecipeService {
	return &RecipeService{repo: repo, images: images, events: publisher}
}

func (s *RecipeService) List(ctx context.Context, filter store.RecipeFilter, offset, limit int) ([]types.Recipe, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *RecipeService) TopRated(ctx context.Context, limit int) ([]types.Recipe, error) {
	return s.repo.TopRated(ctx, limit)
}

func (s *RecipeService) TopFavorites(ctx context.Context, limit int) ([]types.Recipe, error) {
	return s.repo.TopFavorites(ctx, limit)
}

func (s *RecipeService) Get(ctx context.Context, id int64) (types.Recipe, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new recipe owned by the given user and publishes a
// recipe.created event.
func (s *RecipeService) Create(ctx context.Context, recipe types.Recipe, owner types.User) (types.Recipe, error) {
	if err := validateRecipe(recipe); err != nil {
		return types.Recipe{}, err
	}
	recipe.UserID = owner.ID
	recipe.Rating = 0
	recipe.RatingCount = 0
	recipe.FavoriteCount = 0

	created, err := s.repo.Create(ctx, recipe)
	if err != nil {
		return types.Recipe{}, err
	}

	s.events.PublishRecipeCreated(ctx, created)
	return created, nil
}

// Update replaces a recipe's editable fields and lines. Only the owner
// or an admin may update.
func (s *RecipeService) Update(ctx context.Context, recipe types.Recipe, actor types.User) (types.Recipe, error) {
	if err := validateRecipe(recipe); err != nil {
		return types.Recipe{}, err
	}

	existing, err := s.repo.Get(ctx, recipe.ID)
	if err != nil {
		return types.Recipe{}, err
	}
	if !canMutate(existing, actor) {
		return types.Recipe{}, ErrForbidden
	}

	// Only the editable fields come from the request. Ownership, rating
	// aggregates, the image key and timestamps stay with the stored record.
	existing.Title = recipe.Title
	existing.Description = recipe.Description
	existing.PrepTime = recipe.PrepTime
	existing.CookTime = recipe.CookTime
	existing.TotalTime = recipe.TotalTime
	existing.Servings = recipe.Servings
	existing.Difficulty = recipe.Difficulty
	existing.CuisineType = recipe.CuisineType
	existing.MealType = recipe.MealType
	existing.Public = recipe.Public
	existing.Ingredients = recipe.Ingredients
	existing.Instructions = recipe.Instructions

	return s.repo.Update(ctx, existing)
}

// Delete removes a recipe and its stored image, if any. Only the owner
// or an admin may delete.
func (s *RecipeService) Delete(ctx context.Context, id int64, actor types.User) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canMutate(existing, actor) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if existing.ImageKey != "" && s.images != nil {
		_ = s.images.Delete(ctx, existing.ImageKey)
	}
	return nil
}

// Favorite increments a recipe's favorite counter.
func (s *RecipeService) Favorite(ctx context.Context, id int64) error {
	return s.repo.AddFavorite(ctx, id, 1)
}

// Unfavorite decrements a recipe's favorite counter.
func (s *RecipeService) Unfavorite(ctx context.Context, id int64) error {
	return s.repo.AddFavorite(ctx, id, -1)
}

// AttachImage uploads a recipe image and records its storage key.
// Replaces (and removes) any previous image.
func (s *RecipeService) AttachImage(ctx context.Context, id int64, actor types.User, r io.Reader, size int64, contentType string) (string, error) {
	if s.images == nil {
		return "", errors.New("image storage is not configured")
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !canMutate(existing, actor) {
		return "", ErrForbidden
	}

	key := fmt.Sprintf("recipes/%d/image", id)
	if err := s.images.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	if err := s.repo.SetImageKey(ctx, id, key); err != nil {
		return "", err
	}
	return key, nil
}

// OpenImage opens the stored image of a recipe.
func (s *RecipeService) OpenImage(ctx context.Context, id int64) (io.ReadCloser, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}

	recipe, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.ImageKey == "" {
		return nil, store.ErrNotFound
	}
	return s.images.Get(ctx, recipe.ImageKey)
}

// RemoveImage deletes the stored image and clears the key.
func (s *RecipeService) RemoveImage(ctx context.Context, id int64, actor types.User) error {
	if s.images == nil {
		return errors.New("image storage is not configured")
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canMutate(existing, actor) {
		return ErrForbidden
	}
	if existing.ImageKey == "" {
		return store.ErrNotFound
	}

	if err := s.images.Delete(ctx, existing.ImageKey); err != nil {
		return err
	}
	return s.repo.SetImageKey(ctx, id, "")
}

func canMutate(recipe types.Recipe, actor types.User) bool {
	return recipe.UserID == actor.ID || actor.Role == types.RoleAdmin
}

func validateRecipe(recipe types.Recipe) error {
	if recipe.Title == "" {
		return errors.New("title is required")
	}
	if recipe.Difficulty != "" && !types.ValidDifficulty(recipe.Difficulty) {
		return fmt.Errorf("unknown difficulty %q", recipe.Difficulty)
	}
	if recipe.MealType != "" && !types.ValidMealType(recipe.MealType) {
		return fmt.Errorf("unknown meal type %q", recipe.MealType)
	}
	return nil
}
