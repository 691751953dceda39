package types

import "time"

// Difficulty levels a recipe can be tagged with.
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
	DifficultyExpert = "EXPERT"
)

// Meal types a recipe can be tagged with.
const (
	MealBreakfast  = "BREAKFAST"
	MealLunch      = "LUNCH"
	MealDinner     = "DINNER"
	MealSnack      = "SNACK"
	MealDessert    = "DESSERT"
	MealAppetizer  = "APPETIZER"
	MealSoup       = "SOUP"
	MealSalad      = "SALAD"
	MealMainCourse = "MAIN_COURSE"
	MealSideDish   = "SIDE_DISH"
)

// ValidDifficulty reports whether the given value is a known difficulty level.
func ValidDifficulty(value string) bool {
	switch value {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// ValidMealType reports whether the given value is a known meal type.
func ValidMealType(value string) bool {
	switch value {
	case MealBreakfast, MealLunch, MealDinner, MealSnack, MealDessert,
		MealAppetizer, MealSoup, MealSalad, MealMainCourse, MealSideDish:
		return true
	}
	return false
}

// Recipe is a user-authored recipe with its ingredients and instructions.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int64 `json:"id" db:"id"`

	// UserID is the account that owns the recipe.
	UserID int64 `json:"userId" db:"user_id"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// PrepTime and CookTime are in minutes. TotalTime is derived as
	// their sum whenever both are set.
	PrepTime  int `json:"prepTime" db:"prep_time"`
	CookTime  int `json:"cookTime" db:"cook_time"`
	TotalTime int `json:"totalTime" db:"total_time"`

	Servings int `json:"servings" db:"servings"`

	// Difficulty is one of the Difficulty* constants, empty if unset.
	Difficulty string `json:"difficulty,omitempty" db:"difficulty"`

	CuisineType string `json:"cuisineType,omitempty" db:"cuisine_type"`

	// MealType is one of the Meal* constants, empty if unset.
	MealType string `json:"mealType,omitempty" db:"meal_type"`

	// ImageKey is the object-storage key of the recipe image, empty
	// when no image has been uploaded.
	ImageKey string `json:"imageKey,omitempty" db:"image_key"`

	// Rating is the average of all review ratings; zero when unreviewed.
	// RatingCount is the number of reviews contributing to it.
	Rating      float64 `json:"rating" db:"rating"`
	RatingCount int     `json:"ratingCount" db:"rating_count"`

	FavoriteCount int `json:"favoriteCount" db:"favorite_count"`

	// Public controls whether the recipe appears in shared listings.
	Public bool `json:"isPublic" db:"is_public"`

	Ingredients  []Ingredient  `json:"ingredients,omitempty"`
	Instructions []Instruction `json:"instructions,omitempty"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Ingredient is a single ingredient line of a recipe.
type Ingredient struct {
	ID       int64   `json:"id" db:"id"`
	RecipeID int64   `json:"-" db:"recipe_id"`
	Name     string  `json:"name" db:"name"`
	Quantity float64 `json:"quantity" db:"quantity"`
	Unit     string  `json:"unit,omitempty" db:"unit"`
}

// Instruction is a single ordered step of a recipe.
type Instruction struct {
	ID         int64  `json:"id" db:"id"`
	RecipeID   int64  `json:"-" db:"recipe_id"`
	StepNumber int    `json:"stepNumber" db:"step_number"`
	Text       string `json:"text" db:"text"`
}
