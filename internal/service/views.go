package service

import (
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// pageBounds converts a 1-based page and a limit into limit/offset, applying
// the defaults.
func pageBounds(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func userView(u *models.User, subscribed bool) types.UserView {
	return types.UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func tagView(t *models.Tag) types.TagView {
	return types.TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientView(i *models.Ingredient) types.IngredientView {
	return types.IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func shortView(r *models.Recipe) *types.RecipeShortView {
	return &types.RecipeShortView{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func shortViews(rows []models.Recipe) []types.RecipeShortView {
	out := make([]types.RecipeShortView, 0, len(rows))
	for i := range rows {
		out = append(out, *shortView(&rows[i]))
	}
	return out
}
