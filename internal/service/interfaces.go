package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUser(ctx context.Context, viewer types.Actor, id uuid.UUID) (*types.UserView, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, actor types.Actor, req *types.RecipeWriteRequest) (*types.RecipeView, error)
	UpdateRecipe(ctx context.Context, actor types.Actor, id uuid.UUID, req *types.RecipeWriteRequest) (*types.RecipeView, error)
	DeleteRecipe(ctx context.Context, actor types.Actor, id uuid.UUID) error
	GetRecipe(ctx context.Context, viewer types.Actor, id uuid.UUID) (*types.RecipeView, error)
	ListRecipes(ctx context.Context, viewer types.Actor, filter types.RecipeFilter) (*types.Page[types.RecipeView], error)
}

// ISocialService defines favorites, cart and subscription toggles
type ISocialService interface {
	AddFavorite(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, *types.RecipeShortView, error)
	RemoveFavorite(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, error)
	AddToCart(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, *types.RecipeShortView, error)
	RemoveFromCart(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, error)
	Subscribe(ctx context.Context, actor types.Actor, authorID uuid.UUID) (MembershipOutcome, *types.UserView, error)
	Unsubscribe(ctx context.Context, actor types.Actor, authorID uuid.UUID) (MembershipOutcome, error)
	ListSubscriptions(ctx context.Context, actor types.Actor, recipesLimit, limit, page int) (*types.Page[types.SubscriptionView], error)
	ListFavorites(ctx context.Context, actor types.Actor) ([]types.RecipeShortView, error)
	ListCart(ctx context.Context, actor types.Actor) ([]types.RecipeShortView, error)
}

// IShoppingListService defines the shopping list aggregation
type IShoppingListService interface {
	Build(ctx context.Context, actor types.Actor) ([]types.ShoppingItem, error)
}

// ICatalogService defines ingredient and tag catalog operations
type ICatalogService interface {
	ListIngredients(ctx context.Context, prefix string) ([]types.IngredientView, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*types.IngredientView, error)
	CreateIngredient(ctx context.Context, actor types.Actor, req *types.CreateIngredientRequest) (*types.IngredientView, error)
	DeleteIngredient(ctx context.Context, actor types.Actor, id uuid.UUID) error
	ListTags(ctx context.Context) ([]types.TagView, error)
	GetTag(ctx context.Context, id uuid.UUID) (*types.TagView, error)
	CreateTag(ctx context.Context, actor types.Actor, req *types.CreateTagRequest) (*types.TagView, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ ISocialService       = (*SocialService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ ImageStore           = (*S3ImageStore)(nil)
	_ ManifestRenderer     = TextManifest{}
)
