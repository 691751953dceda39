// Package seed loads a small sample dataset for local development: an
// admin account, a demo user, and two recipes authored by the demo user.
package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/lric3/recipes/internal/services"
	"github.com/lric3/recipes/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminPassword = "admin123!"
	demoPassword  = "demo1234!"
)

// Run seeds the database. It is a no-op when any user already exists.
func Run(ctx context.Context, users services.UserRepository, recipes services.RecipeRepository) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Printf("seed: users exist, skipping")
		return nil
	}

	if _, err := createUser(ctx, users, types.User{
		Username:  "admin",
		Email:     "admin@recipes.local",
		FirstName: "Site",
		LastName:  "Admin",
		Role:      types.RoleAdmin,
	}, adminPassword); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	demo, err := createUser(ctx, users, types.User{
		Username:  "demo",
		Email:     "demo@recipes.local",
		FirstName: "Demo",
		LastName:  "Cook",
		Role:      types.RoleUser,
	}, demoPassword)
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}

	for _, recipe := range sampleRecipes(demo.ID) {
		if _, err := recipes.Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe %q: %w", recipe.Title, err)
		}
	}

	log.Printf("seed: created 2 users and 2 recipes")
	return nil
}

func createUser(ctx context.Context, users services.UserRepository, user types.User, password string) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}
	user.PasswordHash = string(hashed)
	return users.Create(ctx, user)
}

func sampleRecipes(userID int64) []types.Recipe {
	return []types.Recipe{
		{
			UserID:      userID,
			Title:       "Spaghetti Carbonara",
			Description: "Classic Roman pasta with eggs, pecorino, and guanciale.",
			PrepTime:    10,
			CookTime:    20,
			Servings:    4,
			Difficulty:  types.DifficultyMedium,
			CuisineType: "Italian",
			MealType:    types.MealDinner,
			Public:      true,
			Ingredients: []types.Ingredient{
				{Name: "Spaghetti", Quantity: 400, Unit: "g"},
				{Name: "Guanciale", Quantity: 150, Unit: "g"},
				{Name: "Egg yolks", Quantity: 4},
				{Name: "Pecorino Romano", Quantity: 80, Unit: "g"},
				{Name: "Black pepper", Quantity: 1, Unit: "tsp"},
			},
			Instructions: []types.Instruction{
				{StepNumber: 1, Text: "Boil the spaghetti in salted water until al dente."},
				{StepNumber: 2, Text: "Render the guanciale in a cold pan over medium heat."},
				{StepNumber: 3, Text: "Whisk yolks with grated pecorino and plenty of pepper."},
				{StepNumber: 4, Text: "Toss pasta with guanciale off the heat, then fold in the egg mixture."},
			},
		},
		{
			UserID:      userID,
			Title:       "Chocolate Chip Cookies",
			Description: "Chewy cookies with browned butter and dark chocolate.",
			PrepTime:    15,
			CookTime:    12,
			Servings:    24,
			Difficulty:  types.DifficultyEasy,
			CuisineType: "American",
			MealType:    types.MealDessert,
			Public:      true,
			Ingredients: []types.Ingredient{
				{Name: "Butter", Quantity: 225, Unit: "g"},
				{Name: "Brown sugar", Quantity: 200, Unit: "g"},
				{Name: "Flour", Quantity: 300, Unit: "g"},
				{Name: "Eggs", Quantity: 2},
				{Name: "Dark chocolate", Quantity: 250, Unit: "g"},
			},
			Instructions: []types.Instruction{
				{StepNumber: 1, Text: "Brown the butter and let it cool slightly."},
				{StepNumber: 2, Text: "Cream the butter with the sugars, then beat in the eggs."},
				{StepNumber: 3, Text: "Fold in flour and chopped chocolate; chill the dough."},
				{StepNumber: 4, Text: "Bake at 180C for about 12 minutes."},
			},
		},
	}
}
