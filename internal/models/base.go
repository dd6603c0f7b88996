package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID to id when it has not been set by the caller.
// Keys are generated application-side so SQLite and Postgres behave the same.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every model in dependency order, for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&Favorite{},
		&ShoppingCartEntry{},
		&Subscription{},
	}
}
