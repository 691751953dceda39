package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lric3/recipes/types"
)

const reviewColumns = `id, recipe_id, user_id, rating, comment, created_at, updated_at`

// ReviewRepository handles persistence for recipe reviews.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Get(ctx context.Context, id int64) (types.Review, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1`
	return scanReview(r.db.QueryRowContext(ctx, query, id))
}

func (r *ReviewRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]types.Review, error) {
	const query = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE recipe_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []types.Review
	for rows.Next() {
		var review types.Review
		if err := rows.Scan(
			&review.ID,
			&review.RecipeID,
			&review.UserID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) ExistsByRecipeAndUser(ctx context.Context, recipeID, userID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reviews WHERE recipe_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, recipeID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	const query = `
		INSERT INTO reviews (recipe_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		review.RecipeID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	).Scan(&review.ID); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review types.Review) (types.Review, error) {
	review.UpdatedAt = time.Now()

	const query = `
		UPDATE reviews
		SET rating = $1,
			comment = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, review.Rating, review.Comment, review.UpdatedAt, review.ID)
	if err != nil {
		return types.Review{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Review{}, err
	}
	if affected == 0 {
		return types.Review{}, ErrNotFound
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AggregateForRecipe returns the average rating and review count for a
// recipe; (0, 0) when it has no reviews.
func (r *ReviewRepository) AggregateForRecipe(ctx context.Context, recipeID int64) (float64, int, error) {
	const query = `
		SELECT COALESCE(AVG(rating), 0), COUNT(1)
		FROM reviews
		WHERE recipe_id = $1`
	var average float64
	var count int
	if err := r.db.QueryRowContext(ctx, query, recipeID).Scan(&average, &count); err != nil {
		return 0, 0, err
	}
	return average, count, nil
}

func scanReview(row *sql.Row) (types.Review, error) {
	var review types.Review
	err := row.Scan(
		&review.ID,
		&review.RecipeID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}
