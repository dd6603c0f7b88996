package testhelpers

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// CreateUser inserts a user with a unique username and returns it.
func CreateUser(t *testing.T, db *gorm.DB, admin bool) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		Email:        "user-" + suffix + "@example.com",
		Username:     "user-" + suffix,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
		IsAdmin:      admin,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// ActorFor returns the actor acting as user.
func ActorFor(user *models.User) types.Actor {
	return types.Actor{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

func CreateTag(t *testing.T, db *gorm.DB, name, color, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return tag
}

// CreateRecipe inserts a recipe directly, bypassing the composer.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, amounts map[*models.Ingredient]float64) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Mix and cook.",
		Image:       "recipes/" + uuid.NewString() + ".png",
		CookingTime: 10,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Ingredients", "Tags").Create(recipe).Error; err != nil {
			return err
		}
		for ing, amount := range amounts {
			ri := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ing.ID, Amount: amount}
			if err := tx.Omit("Ingredient").Create(ri).Error; err != nil {
				return err
			}
		}
		for _, tag := range tags {
			if err := tx.Omit("Tag").Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}

// PNGDataURI returns a tiny payload that sniffs as image/png, wrapped in a
// base64 data URI.
func PNGDataURI() string {
	data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("\x00\x00\x00\rIHDR")...)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
