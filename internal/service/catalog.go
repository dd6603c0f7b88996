package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CatalogService serves the ingredient and tag reference data. Reads are
// public; writes require an admin.
type CatalogService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogService(db *gorm.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{db: db, log: log.With("service", "CatalogService")}
}

// ListIngredients returns ingredients whose name starts with prefix, ignoring
// case, ordered by name.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]types.IngredientView, error) {
	query := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeEscaper.Replace(strings.ToLower(prefix))+"%")
	}

	var rows []models.Ingredient
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	out := make([]types.IngredientView, 0, len(rows))
	for i := range rows {
		out = append(out, ingredientView(&rows[i]))
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*types.IngredientView, error) {
	var row models.Ingredient
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ingredient", "ingredient %s not found", id)
		}
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	view := ingredientView(&row)
	return &view, nil
}

// CreateIngredient adds a catalog entry. (name, unit) pairs are unique.
func (s *CatalogService) CreateIngredient(ctx context.Context, actor types.Actor, req *types.CreateIngredientRequest) (*types.IngredientView, error) {
	if err := requireAdmin(actor, "manage ingredients"); err != nil {
		return nil, err
	}
	row := models.Ingredient{
		Name:            strings.TrimSpace(req.Name),
		MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
	}
	if row.Name == "" {
		return nil, validationError("name", "name is required")
	}
	if row.MeasurementUnit == "" {
		return nil, validationError("measurement_unit", "measurement unit is required")
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateStoreError(err, fmt.Sprintf("ingredient %q (%s)", row.Name, row.MeasurementUnit))
	}

	s.log.Info("ingredient created", "ingredient_id", row.ID, "name", row.Name)
	view := ingredientView(&row)
	return &view, nil
}

// ImportIngredients bulk-loads catalog entries, skipping (name, unit) pairs
// that already exist. It returns how many rows were inserted. Used by the
// loader command, so there is no actor check.
func (s *CatalogService) ImportIngredients(ctx context.Context, reqs []types.CreateIngredientRequest) (int64, error) {
	rows := make([]models.Ingredient, 0, len(reqs))
	for i, req := range reqs {
		row := models.Ingredient{
			Name:            strings.TrimSpace(req.Name),
			MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
		}
		if row.Name == "" || row.MeasurementUnit == "" {
			return 0, validationError("ingredients", "entry %d needs a name and a measurement unit", i)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, 500)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", result.Error)
	}

	s.log.Info("ingredients imported", "inserted", result.RowsAffected, "total", len(rows))
	return result.RowsAffected, nil
}

// DeleteIngredient removes an ingredient no recipe uses. An ingredient still
// referenced yields Conflict.
func (s *CatalogService) DeleteIngredient(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor, "manage ingredients"); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Ingredient
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ingredient", "ingredient %s not found", id)
			}
			return err
		}
		var uses int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("ingredient_id = ?", id).Count(&uses).Error; err != nil {
			return err
		}
		if uses > 0 {
			return conflict("ingredient %q is used by %d recipes", row.Name, uses)
		}
		return tx.Delete(&models.Ingredient{}, "id = ?", id).Error
	})
	if err != nil {
		return translateStoreError(err, "ingredient reference")
	}

	s.log.Info("ingredient deleted", "ingredient_id", id)
	return nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagView, error) {
	var rows []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]types.TagView, 0, len(rows))
	for i := range rows {
		out = append(out, tagView(&rows[i]))
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*types.TagView, error) {
	var row models.Tag
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tag", "tag %s not found", id)
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	view := tagView(&row)
	return &view, nil
}

// CreateTag adds a tag. The slug is derived from the name when not given.
func (s *CatalogService) CreateTag(ctx context.Context, actor types.Actor, req *types.CreateTagRequest) (*types.TagView, error) {
	if err := requireAdmin(actor, "manage tags"); err != nil {
		return nil, err
	}
	row := models.Tag{
		Name:  strings.TrimSpace(req.Name),
		Color: strings.ToUpper(strings.TrimSpace(req.Color)),
		Slug:  strings.TrimSpace(req.Slug),
	}
	if row.Name == "" {
		return nil, validationError("name", "name is required")
	}
	if row.Slug == "" {
		row.Slug = slug.Make(row.Name)
	}
	if !slug.IsSlug(row.Slug) {
		return nil, validationError("slug", "cannot derive a slug from %q", row.Name)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateStoreError(err, "tag with this name, color or slug")
	}

	s.log.Info("tag created", "tag_id", row.ID, "slug", row.Slug)
	view := tagView(&row)
	return &view, nil
}

func requireAdmin(actor types.Actor, action string) error {
	if actor.IsAnonymous() {
		return authRequired(action)
	}
	if !actor.IsAdmin {
		return forbidden("only administrators may %s", action)
	}
	return nil
}
