package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lric3/recipes/types"
)

const recipeColumns = `id, user_id, title, description, prep_time, cook_time, total_time, servings,
		difficulty, cuisine_type, meal_type, image_key, rating, rating_count, favorite_count,
		is_public, created_at, updated_at`

// RecipeFilter narrows recipe listings. Zero values mean "no constraint".
type RecipeFilter struct {
	PublicOnly bool
	UserID     int64
	Title      string
	Cuisine    string
	MealType   string
	Difficulty string
}

// RecipeRepository handles persistence for recipes and their ingredient
// and instruction lines.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]types.Recipe, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where, args := buildRecipeWhere(filter)

	countQuery := `SELECT COUNT(1) FROM recipes` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT `+recipeColumns+`
		FROM recipes`+where+`
		ORDER BY id
		OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	recipes, err := collectRecipes(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// TopRated returns the highest-rated recipes among public, reviewed ones.
func (r *RecipeRepository) TopRated(ctx context.Context, limit int) ([]types.Recipe, error) {
	if limit < 1 {
		limit = 10
	}
	const query = `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE is_public AND rating_count > 0
		ORDER BY rating DESC, rating_count DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecipes(rows, limit)
}

// TopFavorites returns the most-favorited public recipes.
func (r *RecipeRepository) TopFavorites(ctx context.Context, limit int) ([]types.Recipe, error) {
	if limit < 1 {
		limit = 10
	}
	const query = `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE is_public AND favorite_count > 0
		ORDER BY favorite_count DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecipes(rows, limit)
}

func (r *RecipeRepository) Get(ctx context.Context, id int64) (types.Recipe, error) {
	const query = `
		SELECT ` + recipeColumns + `
		FROM recipes
		WHERE id = $1`
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Recipe{}, err
	}

	if recipe.Ingredients, err = r.ingredients(ctx, id); err != nil {
		return types.Recipe{}, err
	}
	if recipe.Instructions, err = r.instructions(ctx, id); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	recipe.TotalTime = totalTime(recipe)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Recipe{}, err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO recipes (user_id, title, description, prep_time, cook_time, total_time, servings,
			difficulty, cuisine_type, meal_type, image_key, rating, rating_count, favorite_count,
			is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		query,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.PrepTime,
		recipe.CookTime,
		recipe.TotalTime,
		recipe.Servings,
		recipe.Difficulty,
		recipe.CuisineType,
		recipe.MealType,
		recipe.ImageKey,
		recipe.Rating,
		recipe.RatingCount,
		recipe.FavoriteCount,
		recipe.Public,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID); err != nil {
		return types.Recipe{}, err
	}

	if err := insertRecipeLines(ctx, tx, recipe.ID, recipe.Ingredients, recipe.Instructions); err != nil {
		return types.Recipe{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.UpdatedAt = time.Now()
	recipe.TotalTime = totalTime(recipe)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Recipe{}, err
	}
	defer tx.Rollback()

	const query = `
		UPDATE recipes
		SET title = $1,
			description = $2,
			prep_time = $3,
			cook_time = $4,
			total_time = $5,
			servings = $6,
			difficulty = $7,
			cuisine_type = $8,
			meal_type = $9,
			is_public = $10,
			updated_at = $11
		WHERE id = $12`
	result, err := tx.ExecContext(
		ctx,
		query,
		recipe.Title,
		recipe.Description,
		recipe.PrepTime,
		recipe.CookTime,
		recipe.TotalTime,
		recipe.Servings,
		recipe.Difficulty,
		recipe.CuisineType,
		recipe.MealType,
		recipe.Public,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Recipe{}, err
	}
	if affected == 0 {
		return types.Recipe{}, ErrNotFound
	}

	// Ingredient and instruction lines are replaced wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
		return types.Recipe{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM instructions WHERE recipe_id = $1`, recipe.ID); err != nil {
		return types.Recipe{}, err
	}
	if err := insertRecipeLines(ctx, tx, recipe.ID, recipe.Ingredients, recipe.Instructions); err != nil {
		return types.Recipe{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM recipes WHERE id = $1`
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

// SetRating stores a recomputed review aggregate for the recipe.
func (r *RecipeRepository) SetRating(ctx context.Context, id int64, rating float64, count int) error {
	const query = `
		UPDATE recipes
		SET rating = $1, rating_count = $2, updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, rating, count, time.Now(), id)
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

// AddFavorite adjusts the favorite counter by delta, clamped at zero.
func (r *RecipeRepository) AddFavorite(ctx context.Context, id int64, delta int) error {
	const query = `
		UPDATE recipes
		SET favorite_count = GREATEST(favorite_count + $1, 0), updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, delta, time.Now(), id)
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

// SetImageKey records the object-storage key of the recipe image. An
// empty key clears it.
func (r *RecipeRepository) SetImageKey(ctx context.Context, id int64, key string) error {
	const query = `
		UPDATE recipes
		SET image_key = $1, updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
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

func (r *RecipeRepository) ingredients(ctx context.Context, recipeID int64) ([]types.Ingredient, error) {
	const query = `
		SELECT id, recipe_id, name, quantity, unit
		FROM ingredients
		WHERE recipe_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []types.Ingredient
	for rows.Next() {
		var ingredient types.Ingredient
		if err := rows.Scan(
			&ingredient.ID,
			&ingredient.RecipeID,
			&ingredient.Name,
			&ingredient.Quantity,
			&ingredient.Unit,
		); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, rows.Err()
}

func (r *RecipeRepository) instructions(ctx context.Context, recipeID int64) ([]types.Instruction, error) {
	const query = `
		SELECT id, recipe_id, step_number, text
		FROM instructions
		WHERE recipe_id = $1
		ORDER BY step_number`
	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instructions []types.Instruction
	for rows.Next() {
		var instruction types.Instruction
		if err := rows.Scan(
			&instruction.ID,
			&instruction.RecipeID,
			&instruction.StepNumber,
			&instruction.Text,
		); err != nil {
			return nil, err
		}
		instructions = append(instructions, instruction)
	}
	return instructions, rows.Err()
}

func insertRecipeLines(ctx context.Context, tx *sql.Tx, recipeID int64, ingredients []types.Ingredient, instructions []types.Instruction) error {
	const ingredientQuery = `
		INSERT INTO ingredients (recipe_id, name, quantity, unit)
		VALUES ($1, $2, $3, $4)`
	for _, ingredient := range ingredients {
		if _, err := tx.ExecContext(ctx, ingredientQuery, recipeID, ingredient.Name, ingredient.Quantity, ingredient.Unit); err != nil {
			return err
		}
	}

	const instructionQuery = `
		INSERT INTO instructions (recipe_id, step_number, text)
		VALUES ($1, $2, $3)`
	for index, instruction := range instructions {
		step := instruction.StepNumber
		if step == 0 {
			step = index + 1
		}
		if _, err := tx.ExecContext(ctx, instructionQuery, recipeID, step, instruction.Text); err != nil {
			return err
		}
	}
	return nil
}

func buildRecipeWhere(filter RecipeFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.PublicOnly {
		clauses = append(clauses, "is_public")
	}
	if filter.UserID != 0 {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Title != "" {
		add("title ILIKE $%d", "%"+filter.Title+"%")
	}
	if filter.Cuisine != "" {
		add("cuisine_type = $%d", filter.Cuisine)
	}
	if filter.MealType != "" {
		add("meal_type = $%d", filter.MealType)
	}
	if filter.Difficulty != "" {
		add("difficulty = $%d", filter.Difficulty)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectRecipes(rows *sql.Rows, capacity int) ([]types.Recipe, error) {
	recipes := make([]types.Recipe, 0, capacity)
	for rows.Next() {
		var recipe types.Recipe
		if err := rows.Scan(
			&recipe.ID,
			&recipe.UserID,
			&recipe.Title,
			&recipe.Description,
			&recipe.PrepTime,
			&recipe.CookTime,
			&recipe.TotalTime,
			&recipe.Servings,
			&recipe.Difficulty,
			&recipe.CuisineType,
			&recipe.MealType,
			&recipe.ImageKey,
			&recipe.Rating,
			&recipe.RatingCount,
			&recipe.FavoriteCount,
			&recipe.Public,
			&recipe.CreatedAt,
			&recipe.UpdatedAt,
		); err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

func scanRecipe(row *sql.Row) (types.Recipe, error) {
	var recipe types.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.Description,
		&recipe.PrepTime,
		&recipe.CookTime,
		&recipe.TotalTime,
		&recipe.Servings,
		&recipe.Difficulty,
		&recipe.CuisineType,
		&recipe.MealType,
		&recipe.ImageKey,
		&recipe.Rating,
		&recipe.RatingCount,
		&recipe.FavoriteCount,
		&recipe.Public,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}
	return recipe, nil
}

func totalTime(recipe types.Recipe) int {
	if recipe.PrepTime > 0 && recipe.CookTime > 0 {
		return recipe.PrepTime + recipe.CookTime
	}
	return recipe.TotalTime
}
