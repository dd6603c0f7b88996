package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipOutcome reports what a toggle call did.
type MembershipOutcome int

const (
	Added MembershipOutcome = iota + 1
	AlreadyPresent
	Removed
	NotPresent
)

func (o MembershipOutcome) String() string {
	switch o {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	case Removed:
		return "removed"
	case NotPresent:
		return "not_present"
	default:
		return "unknown"
	}
}

// SocialService manages favorites, shopping cart membership and author
// subscriptions. Every pair is unique; the unique indexes decide races.
type SocialService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSocialService(db *gorm.DB, log *logger.Logger) *SocialService {
	return &SocialService{db: db, log: log.With("service", "SocialService")}
}

// AddFavorite marks the recipe as a favorite of the actor.
func (s *SocialService) AddFavorite(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, *types.RecipeShortView, error) {
	if actor.IsAnonymous() {
		return 0, nil, authRequired("add favorites")
	}
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return 0, nil, err
	}
	outcome, err := s.insert(ctx, &models.Favorite{UserID: actor.UserID, RecipeID: recipeID})
	if err != nil {
		return 0, nil, err
	}
	s.log.Debug("favorite toggled", "user_id", actor.UserID, "recipe_id", recipeID, "outcome", outcome)
	return outcome, shortView(recipe), nil
}

// RemoveFavorite unmarks the recipe. Removing an absent favorite changes
// nothing and reports NotPresent.
func (s *SocialService) RemoveFavorite(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, error) {
	if actor.IsAnonymous() {
		return 0, authRequired("remove favorites")
	}
	if _, err := s.loadRecipe(ctx, recipeID); err != nil {
		return 0, err
	}
	return s.remove(ctx, &models.Favorite{}, "user_id = ? AND recipe_id = ?", actor.UserID, recipeID)
}

// AddToCart puts the recipe in the actor's shopping cart.
func (s *SocialService) AddToCart(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, *types.RecipeShortView, error) {
	if actor.IsAnonymous() {
		return 0, nil, authRequired("use the shopping cart")
	}
	recipe, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return 0, nil, err
	}
	outcome, err := s.insert(ctx, &models.ShoppingCartEntry{UserID: actor.UserID, RecipeID: recipeID})
	if err != nil {
		return 0, nil, err
	}
	s.log.Debug("cart toggled", "user_id", actor.UserID, "recipe_id", recipeID, "outcome", outcome)
	return outcome, shortView(recipe), nil
}

func (s *SocialService) RemoveFromCart(ctx context.Context, actor types.Actor, recipeID uuid.UUID) (MembershipOutcome, error) {
	if actor.IsAnonymous() {
		return 0, authRequired("use the shopping cart")
	}
	if _, err := s.loadRecipe(ctx, recipeID); err != nil {
		return 0, err
	}
	return s.remove(ctx, &models.ShoppingCartEntry{}, "user_id = ? AND recipe_id = ?", actor.UserID, recipeID)
}

// Subscribe makes the actor follow authorID. Following yourself is rejected
// before any lookup.
func (s *SocialService) Subscribe(ctx context.Context, actor types.Actor, authorID uuid.UUID) (MembershipOutcome, *types.UserView, error) {
	if actor.IsAnonymous() {
		return 0, nil, authRequired("subscribe")
	}
	if actor.UserID == authorID {
		return 0, nil, validationError("author", "cannot follow yourself")
	}
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return 0, nil, err
	}
	outcome, err := s.insert(ctx, &models.Subscription{FollowerID: actor.UserID, AuthorID: authorID})
	if err != nil {
		return 0, nil, err
	}
	view := userView(author, true)
	s.log.Info("subscription toggled", "follower_id", actor.UserID, "author_id", authorID, "outcome", outcome)
	return outcome, &view, nil
}

func (s *SocialService) Unsubscribe(ctx context.Context, actor types.Actor, authorID uuid.UUID) (MembershipOutcome, error) {
	if actor.IsAnonymous() {
		return 0, authRequired("unsubscribe")
	}
	if _, err := s.loadUser(ctx, authorID); err != nil {
		return 0, err
	}
	return s.remove(ctx, &models.Subscription{}, "follower_id = ? AND author_id = ?", actor.UserID, authorID)
}

// ListSubscriptions pages through the authors the actor follows, ordered by
// username. recipesLimit caps the recipes listed per author; zero or less
// lists all of them.
func (s *SocialService) ListSubscriptions(ctx context.Context, actor types.Actor, recipesLimit, limit, page int) (*types.Page[types.SubscriptionView], error) {
	if actor.IsAnonymous() {
		return nil, authRequired("list subscriptions")
	}
	limit, offset := pageBounds(limit, page)
	db := s.db.WithContext(ctx)

	followed := db.Model(&models.Subscription{}).Select("author_id").Where("follower_id = ?", actor.UserID)
	query := db.Model(&models.User{}).Where("id IN (?)", followed).Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := query.Order("username").Limit(limit).Offset(offset).Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	results := make([]types.SubscriptionView, 0, len(authors))
	for i := range authors {
		view := types.SubscriptionView{UserView: userView(&authors[i], true)}

		if err := db.Model(&models.Recipe{}).Where("author_id = ?", authors[i].ID).Count(&view.RecipesCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}

		recipes := db.Where("author_id = ?", authors[i].ID).Order("created_at DESC")
		if recipesLimit > 0 {
			recipes = recipes.Limit(recipesLimit)
		}
		var rows []models.Recipe
		if err := recipes.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list recipes: %w", err)
		}
		view.Recipes = shortViews(rows)
		results = append(results, view)
	}
	return &types.Page[types.SubscriptionView]{Count: count, Results: results}, nil
}

// ListFavorites returns the actor's favorite recipes, most recently added
// first.
func (s *SocialService) ListFavorites(ctx context.Context, actor types.Actor) ([]types.RecipeShortView, error) {
	if actor.IsAnonymous() {
		return nil, authRequired("list favorites")
	}
	return s.listMembers(ctx, "favorites", actor.UserID)
}

// ListCart returns the recipes in the actor's shopping cart.
func (s *SocialService) ListCart(ctx context.Context, actor types.Actor) ([]types.RecipeShortView, error) {
	if actor.IsAnonymous() {
		return nil, authRequired("use the shopping cart")
	}
	return s.listMembers(ctx, "shopping_cart_entries", actor.UserID)
}

func (s *SocialService) listMembers(ctx context.Context, table string, userID uuid.UUID) ([]types.RecipeShortView, error) {
	var rows []models.Recipe
	err := s.db.WithContext(ctx).
		Joins(fmt.Sprintf("JOIN %s AS m ON m.recipe_id = recipes.id", table)).
		Where("m.user_id = ?", userID).
		Order("m.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return shortViews(rows), nil
}

// insert adds a membership row. Zero affected rows means the pair already
// existed, including when a concurrent caller inserted it first.
func (s *SocialService) insert(ctx context.Context, row interface{}) (MembershipOutcome, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return AlreadyPresent, nil
		}
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return 0, &Error{Kind: KindNotFound, Message: "referenced row no longer exists", Err: res.Error}
		}
		return 0, fmt.Errorf("failed to insert membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return AlreadyPresent, nil
	}
	return Added, nil
}

func (s *SocialService) remove(ctx context.Context, model interface{}, where string, args ...interface{}) (MembershipOutcome, error) {
	res := s.db.WithContext(ctx).Where(where, args...).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotPresent, nil
	}
	return Removed, nil
}

func (s *SocialService) loadRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", "recipe %s not found", id)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

func (s *SocialService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("author", "user %s not found", id)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
