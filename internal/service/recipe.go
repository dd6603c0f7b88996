package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRecipeNameLength = 200

// RecipeService composes recipes together with their tag sets and
// quantified ingredient lists.
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	log    *logger.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, log *logger.Logger) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		log:    log.With("service", "RecipeService"),
	}
}

// composition is a validated write request with its references resolved.
type composition struct {
	name        string
	text        string
	cookingTime int
	image       *Image
	tags        []uuid.UUID
	ingredients []types.IngredientAmount
}

// CreateRecipe validates the request, stores the image and inserts the recipe
// with its tags and ingredients in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, actor types.Actor, req *types.RecipeWriteRequest) (*types.RecipeView, error) {
	if actor.IsAnonymous() {
		return nil, authRequired("create a recipe")
	}
	comp, err := validateRecipe(req, true)
	if err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, comp); err != nil {
		return nil, err
	}

	imageRef, err := s.images.Save(ctx, comp.image)
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := models.Recipe{
		AuthorID:    actor.UserID,
		Name:        comp.name,
		Text:        comp.text,
		Image:       imageRef,
		CookingTime: comp.cookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		return insertComposition(tx, recipe.ID, comp)
	})
	if err != nil {
		s.discardImage(imageRef)
		return nil, translateStoreError(err, "recipe composition")
	}

	s.log.Info("recipe created", "recipe_id", recipe.ID, "author_id", actor.UserID,
		"tags", len(comp.tags), "ingredients", len(comp.ingredients))
	return s.GetRecipe(ctx, actor, recipe.ID)
}

// UpdateRecipe replaces the recipe's scalar fields, tag set and ingredient
// list. Only the author or an admin may update. An empty image keeps the
// stored one.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor types.Actor, id uuid.UUID, req *types.RecipeWriteRequest) (*types.RecipeView, error) {
	if actor.IsAnonymous() {
		return nil, authRequired("update a recipe")
	}
	existing, err := s.loadRecipe(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(existing.AuthorID) {
		return nil, forbidden("only the author may change recipe %s", id)
	}

	comp, err := validateRecipe(req, false)
	if err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, comp); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":         comp.name,
		"text":         comp.text,
		"cooking_time": comp.cookingTime,
	}
	var imageRef string
	if comp.image != nil {
		imageRef, err = s.images.Save(ctx, comp.image)
		if err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
		updates["image"] = imageRef
	}

	// The image replaced is the one seen under the row lock, not the one read
	// above, so concurrent updates each discard their own predecessor.
	var previousImage string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.loadRecipe(ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if !actor.CanEdit(locked.AuthorID) {
			return forbidden("only the author may change recipe %s", id)
		}
		previousImage = locked.Image
		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return err
		}
		return insertComposition(tx, id, comp)
	})
	if err != nil {
		if imageRef != "" {
			s.discardImage(imageRef)
		}
		return nil, translateStoreError(err, "recipe composition")
	}
	if imageRef != "" && previousImage != "" {
		s.discardImage(previousImage)
	}

	s.log.Info("recipe updated", "recipe_id", id, "actor_id", actor.UserID)
	return s.GetRecipe(ctx, actor, id)
}

// DeleteRecipe removes the recipe with its ingredient rows, tag links,
// favorites and cart entries.
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if actor.IsAnonymous() {
		return authRequired("delete a recipe")
	}

	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := s.loadRecipe(ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if !actor.CanEdit(recipe.AuthorID) {
			return forbidden("only the author may delete recipe %s", id)
		}
		image = recipe.Image

		for _, model := range []interface{}{
			&models.ShoppingCartEntry{},
			&models.Favorite{},
			&models.RecipeTag{},
			&models.RecipeIngredient{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, "id = ?", id).Error
	})
	if err != nil {
		return translateStoreError(err, "recipe")
	}
	if image != "" {
		s.discardImage(image)
	}

	s.log.Info("recipe deleted", "recipe_id", id, "actor_id", actor.UserID)
	return nil
}

// GetRecipe retrieves a recipe by ID as seen by viewer
func (s *RecipeService) GetRecipe(ctx context.Context, viewer types.Actor, id uuid.UUID) (*types.RecipeView, error) {
	var recipe models.Recipe
	err := withRecipeRelations(s.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", "recipe %s not found", id)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	views, err := s.buildViews(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes pages through recipes newest first, narrowed by filter.
// Favorite and cart filters match nothing for an anonymous viewer.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer types.Actor, filter types.RecipeFilter) (*types.Page[types.RecipeView], error) {
	limit, offset := pageBounds(filter.Limit, filter.Page)
	db := s.db.WithContext(ctx)
	empty := &types.Page[types.RecipeView]{Results: []types.RecipeView{}}

	query := db.Model(&models.Recipe{})
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := db.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("id IN (?)", tagged)
	}
	for _, m := range []struct {
		want  *bool
		model interface{}
	}{
		{filter.IsFavorited, &models.Favorite{}},
		{filter.IsInShoppingCart, &models.ShoppingCartEntry{}},
	} {
		if m.want == nil {
			continue
		}
		if viewer.IsAnonymous() {
			if *m.want {
				return empty, nil
			}
			continue
		}
		members := db.Model(m.model).Select("recipe_id").Where("user_id = ?", viewer.UserID)
		if *m.want {
			query = query.Where("id IN (?)", members)
		} else {
			query = query.Where("id NOT IN (?)", members)
		}
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	if count == 0 {
		return empty, nil
	}

	var recipes []models.Recipe
	err := withRecipeRelations(query).
		Order("created_at DESC").Order("id").
		Limit(limit).Offset(offset).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.buildViews(ctx, viewer, recipes)
	if err != nil {
		return nil, err
	}
	return &types.Page[types.RecipeView]{Count: count, Results: views}, nil
}

// validateRecipe checks a write request before anything is stored. The first
// failing check is reported.
func validateRecipe(req *types.RecipeWriteRequest, requireImage bool) (*composition, error) {
	if req == nil {
		return nil, validationError("", "request body is required")
	}
	comp := &composition{
		name:        strings.TrimSpace(req.Name),
		text:        strings.TrimSpace(req.Text),
		cookingTime: req.CookingTime,
	}

	if comp.name == "" {
		return nil, validationError("name", "name is required")
	}
	if utf8.RuneCountInString(comp.name) > maxRecipeNameLength {
		return nil, validationError("name", "name must be at most %d characters", maxRecipeNameLength)
	}
	if comp.text == "" {
		return nil, validationError("text", "text is required")
	}
	if comp.cookingTime <= 0 {
		return nil, validationError("cooking_time", "cooking time must be greater than zero")
	}

	if len(req.Tags) == 0 {
		return nil, validationError("tags", "at least one tag is required")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(req.Tags))
	for _, id := range req.Tags {
		if _, dup := seenTags[id]; dup {
			return nil, validationError("tags", "tag %s is listed more than once", id)
		}
		seenTags[id] = struct{}{}
		comp.tags = append(comp.tags, id)
	}

	if len(req.Ingredients) == 0 {
		return nil, validationError("ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(req.Ingredients))
	for _, entry := range req.Ingredients {
		if entry.ID == uuid.Nil {
			return nil, validationError("ingredients", "ingredient id is required")
		}
		if math.IsNaN(entry.Amount) || math.IsInf(entry.Amount, 0) {
			return nil, validationError("amount", "amount of ingredient %s must be a number", entry.ID)
		}
		if entry.Amount > maxAmount {
			return nil, validationError("amount", "amount of ingredient %s must be at most %.0f", entry.ID, float64(maxAmount))
		}
		if normalizeAmount(entry.Amount) <= 0 {
			return nil, validationError("amount", "amount of ingredient %s must be greater than zero", entry.ID)
		}
		if _, dup := seenIngredients[entry.ID]; dup {
			return nil, validationError("ingredients", "ingredient %s is listed more than once", entry.ID)
		}
		seenIngredients[entry.ID] = struct{}{}
		comp.ingredients = append(comp.ingredients, types.IngredientAmount{
			ID:     entry.ID,
			Amount: normalizeAmount(entry.Amount),
		})
	}

	switch {
	case req.Image != "":
		img, err := DecodeImage(req.Image)
		if err != nil {
			return nil, validationError("image", "%s", err.Error())
		}
		comp.image = img
	case requireImage:
		return nil, validationError("image", "image is required")
	}
	return comp, nil
}

// resolveReferences checks that every tag and ingredient exists, one query
// per catalog.
func (s *RecipeService) resolveReferences(ctx context.Context, comp *composition) error {
	db := s.db.WithContext(ctx)

	var tagIDs []uuid.UUID
	if err := db.Model(&models.Tag{}).Where("id IN ?", comp.tags).Pluck("id", &tagIDs).Error; err != nil {
		return fmt.Errorf("failed to resolve tags: %w", err)
	}
	if missing, ok := firstMissing(comp.tags, tagIDs); ok {
		return &Error{Kind: KindValidation, Field: "tags", Message: fmt.Sprintf("tag %s does not exist", missing), Err: ErrNotFound}
	}

	wanted := make([]uuid.UUID, len(comp.ingredients))
	for i, entry := range comp.ingredients {
		wanted[i] = entry.ID
	}
	var ingredientIDs []uuid.UUID
	if err := db.Model(&models.Ingredient{}).Where("id IN ?", wanted).Pluck("id", &ingredientIDs).Error; err != nil {
		return fmt.Errorf("failed to resolve ingredients: %w", err)
	}
	if missing, ok := firstMissing(wanted, ingredientIDs); ok {
		return &Error{Kind: KindValidation, Field: "ingredients", Message: fmt.Sprintf("ingredient %s does not exist", missing), Err: ErrNotFound}
	}
	return nil
}

func firstMissing(wanted, found []uuid.UUID) (uuid.UUID, bool) {
	present := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range wanted {
		if _, ok := present[id]; !ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

func insertComposition(tx *gorm.DB, recipeID uuid.UUID, comp *composition) error {
	rows := make([]models.RecipeIngredient, 0, len(comp.ingredients))
	for _, entry := range comp.ingredients {
		rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: entry.ID, Amount: entry.Amount})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return err
	}

	links := make([]models.RecipeTag, 0, len(comp.tags))
	for _, tagID := range comp.tags {
		links = append(links, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

func (s *RecipeService) loadRecipe(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", "recipe %s not found", id)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

// discardImage deletes an image that is no longer referenced. Failures only
// leave an orphaned object behind, so they are logged and dropped.
func (s *RecipeService) discardImage(ref string) {
	if err := s.images.Delete(context.Background(), ref); err != nil {
		s.log.Warn("failed to delete recipe image", "image", ref, "error", err)
	}
}

func withRecipeRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags.Tag").Preload("Ingredients.Ingredient")
}

// buildViews renders recipes for viewer, computing the per-viewer flags with
// one query each.
func (s *RecipeService) buildViews(ctx context.Context, viewer types.Actor, recipes []models.Recipe) ([]types.RecipeView, error) {
	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	subscribed := map[uuid.UUID]bool{}

	if !viewer.IsAnonymous() && len(recipes) > 0 {
		db := s.db.WithContext(ctx)
		recipeIDs := make([]uuid.UUID, len(recipes))
		authorIDs := make([]uuid.UUID, len(recipes))
		for i := range recipes {
			recipeIDs[i] = recipes[i].ID
			authorIDs[i] = recipes[i].AuthorID
		}

		for _, m := range []struct {
			model  interface{}
			column string
			where  string
			ids    []uuid.UUID
			into   map[uuid.UUID]bool
		}{
			{&models.Favorite{}, "recipe_id", "user_id = ? AND recipe_id IN ?", recipeIDs, favorited},
			{&models.ShoppingCartEntry{}, "recipe_id", "user_id = ? AND recipe_id IN ?", recipeIDs, inCart},
			{&models.Subscription{}, "author_id", "follower_id = ? AND author_id IN ?", authorIDs, subscribed},
		} {
			var found []uuid.UUID
			if err := db.Model(m.model).Where(m.where, viewer.UserID, m.ids).Pluck(m.column, &found).Error; err != nil {
				return nil, fmt.Errorf("failed to load viewer state: %w", err)
			}
			for _, id := range found {
				m.into[id] = true
			}
		}
	}

	views := make([]types.RecipeView, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		view := types.RecipeView{
			ID:               r.ID,
			Author:           userView(&r.Author, subscribed[r.AuthorID]),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			CreatedAt:        r.CreatedAt,
			Tags:             make([]types.TagView, 0, len(r.Tags)),
			Ingredients:      make([]types.RecipeIngredientView, 0, len(r.Ingredients)),
		}
		for j := range r.Tags {
			view.Tags = append(view.Tags, tagView(&r.Tags[j].Tag))
		}
		sort.Slice(view.Tags, func(a, b int) bool { return view.Tags[a].Name < view.Tags[b].Name })
		for _, ri := range r.Ingredients {
			view.Ingredients = append(view.Ingredients, types.RecipeIngredientView{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}
		sort.Slice(view.Ingredients, func(a, b int) bool {
			return view.Ingredients[a].Name < view.Ingredients[b].Name
		})
		views = append(views, view)
	}
	return views, nil
}
