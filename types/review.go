package types

import "time"

// Review is a user's rating and comment on a recipe. A user may post at
// most one review per recipe.
type Review struct {
	ID       int64 `json:"id" db:"id"`
	RecipeID int64 `json:"recipeId" db:"recipe_id"`
	UserID   int64 `json:"userId" db:"user_id"`

	// Rating is an integer score from 1 to 5.
	Rating int `json:"rating" db:"rating"`

	Comment string `json:"comment,omitempty" db:"comment"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
