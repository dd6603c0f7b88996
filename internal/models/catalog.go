package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient is catalog reference data. Rows referenced by a recipe cannot
// be deleted.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name            string    `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit;index" json:"name"`
	MeasurementUnit string    `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Tag is a named, coloured label attachable to recipes.
type Tag struct {
	ID    uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name  string    `gorm:"size:20;not null;uniqueIndex" json:"name"`
	Color string    `gorm:"size:20;not null;uniqueIndex" json:"color"`
	Slug  string    `gorm:"size:50;not null;uniqueIndex" json:"slug"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
