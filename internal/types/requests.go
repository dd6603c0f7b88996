package types

import "github.com/google/uuid"

// IngredientAmount is one entry of a recipe write request.
type IngredientAmount struct {
	ID     uuid.UUID `json:"id"`
	Amount float64   `json:"amount"`
}

// RecipeWriteRequest is the body of recipe create and update calls. Tags and
// Ingredients are always the complete sets; update replaces both.
// Image is a base64 data URI ("data:image/png;base64,...").
type RecipeWriteRequest struct {
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	Image       string             `json:"image"`
	CookingTime int                `json:"cooking_time"`
	Tags        []uuid.UUID        `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
}

// RecipeFilter narrows recipe listings. Nil booleans do not filter.
type RecipeFilter struct {
	AuthorID         *uuid.UUID
	TagSlugs         []string
	IsFavorited      *bool
	IsInShoppingCart *bool
	Limit            int
	Page             int
}

type CreateIngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=200"`
}

// CreateTagRequest creates a tag. Slug is derived from Name when empty.
type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=20"`
	Color string `json:"color" binding:"required,hexcolor"`
	Slug  string `json:"slug" binding:"omitempty,max=50,slug"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
