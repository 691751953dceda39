package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lric3/recipes/internal/events"
	"github.com/lric3/recipes/types"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Get(ctx context.Context, id int64) (types.Review, error)
	ListByRecipe(ctx context.Context, recipeID int64) ([]types.Review, error)
	ExistsByRecipeAndUser(ctx context.Context, recipeID, userID int64) (bool, error)
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Update(ctx context.Context, review types.Review) (types.Review, error)
	Delete(ctx context.Context, id int64) error
	AggregateForRecipe(ctx context.Context, recipeID int64) (float64, int, error)
}

// ReviewService encapsulates review use-cases. Every mutation recomputes
// the recipe's stored rating aggregate.
type ReviewService struct {
	reviews ReviewRepository
	recipes RecipeRepository
	events  *events.Publisher
}

func NewReviewService(reviews ReviewRepository, recipes RecipeRepository, publisher *events.Publisher) *ReviewService {
	return &ReviewService{reviews: reviews, recipes: recipes, events: publisher}
}

func (s *ReviewService) Get(ctx context.Context, id int64) (types.Review, error) {
	return s.reviews.Get(ctx, id)
}

func (s *ReviewService) ListByRecipe(ctx context.Context, recipeID int64) ([]types.Review, error) {
	if _, err := s.recipes.Get(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.reviews.ListByRecipe(ctx, recipeID)
}

// Create posts a review on a recipe. A user may review a recipe once.
func (s *ReviewService) Create(ctx context.Context, recipeID int64, author types.User, rating int, comment string) (types.Review, error) {
	if err := validateRating(rating); err != nil {
		return types.Review{}, err
	}
	if _, err := s.recipes.Get(ctx, recipeID); err != nil {
		return types.Review{}, err
	}

	reviewed, err := s.reviews.ExistsByRecipeAndUser(ctx, recipeID, author.ID)
	if err != nil {
		return types.Review{}, err
	}
	if reviewed {
		return types.Review{}, ErrAlreadyReviewed
	}

	created, err := s.reviews.Create(ctx, types.Review{
		RecipeID: recipeID,
		UserID:   author.ID,
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		return types.Review{}, err
	}

	if err := s.refreshRating(ctx, recipeID); err != nil {
		return types.Review{}, err
	}

	s.events.PublishReviewCreated(ctx, created)
	return created, nil
}

// Update changes a review's rating and comment. Only the author may
// update their review.
func (s *ReviewService) Update(ctx context.Context, id int64, actor types.User, rating int, comment string) (types.Review, error) {
	if err := validateRating(rating); err != nil {
		return types.Review{}, err
	}

	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		return types.Review{}, err
	}
	if review.UserID != actor.ID {
		return types.Review{}, ErrForbidden
	}

	review.Rating = rating
	review.Comment = comment
	updated, err := s.reviews.Update(ctx, review)
	if err != nil {
		return types.Review{}, err
	}

	if err := s.refreshRating(ctx, review.RecipeID); err != nil {
		return types.Review{}, err
	}
	return updated, nil
}

// Delete removes a review. Only the author may delete their review.
func (s *ReviewService) Delete(ctx context.Context, id int64, actor types.User) error {
	review, err := s.reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID {
		return ErrForbidden
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.refreshRating(ctx, review.RecipeID)
}

func (s *ReviewService) refreshRating(ctx context.Context, recipeID int64) error {
	average, count, err := s.reviews.AggregateForRecipe(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("aggregate reviews: %w", err)
	}
	return s.recipes.SetRating(ctx, recipeID, average, count)
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}
