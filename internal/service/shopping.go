package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// amountScale is the number of integer units per measurement unit used while
// summing. Amounts are kept to three decimal places.
const amountScale = 1000

// maxAmount bounds a single quantified ingredient. Scaled, it leaves room for
// millions of cart lines per item before a sum could leave int64.
const maxAmount = 1e9

// CartLine is one quantified ingredient of one recipe in a user's cart.
type CartLine struct {
	Name            string
	MeasurementUnit string
	Amount          float64
}

type itemKey struct {
	name string
	unit string
}

// Aggregate merges cart lines sharing the same ingredient name and unit into
// one item each. Totals are exact to three decimals and independent of input
// order. The result is sorted by name, then unit. A total that would not fit
// the integer accumulator is an error, never a wrapped value.
func Aggregate(lines []CartLine) ([]types.ShoppingItem, error) {
	totals := make(map[itemKey]int64, len(lines))
	for _, line := range lines {
		scaled, ok := toScaled(line.Amount)
		if !ok {
			return nil, fmt.Errorf("amount %v of %s (%s) is out of range", line.Amount, line.Name, line.MeasurementUnit)
		}
		key := itemKey{line.Name, line.MeasurementUnit}
		sum, ok := addScaled(totals[key], scaled)
		if !ok {
			return nil, fmt.Errorf("total of %s (%s) overflows", line.Name, line.MeasurementUnit)
		}
		totals[key] = sum
	}

	items := make([]types.ShoppingItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, types.ShoppingItem{
			Name:            k.name,
			MeasurementUnit: k.unit,
			Amount:          float64(total) / amountScale,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items, nil
}

// toScaled converts an amount to milli-units. ok is false when the amount
// cannot be represented.
func toScaled(amount float64) (int64, bool) {
	scaled := math.Round(amount * amountScale)
	if math.IsNaN(scaled) || scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return 0, false
	}
	return int64(scaled), true
}

func addScaled(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// normalizeAmount rounds an amount to the precision the aggregator keeps.
// Callers bound the amount by maxAmount first.
func normalizeAmount(amount float64) float64 {
	scaled, _ := toScaled(amount)
	return float64(scaled) / amountScale
}

// ShoppingListService builds a user's consolidated shopping list from the
// recipes in their cart.
type ShoppingListService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShoppingListService(db *gorm.DB, log *logger.Logger) *ShoppingListService {
	return &ShoppingListService{db: db, log: log.With("service", "ShoppingListService")}
}

// Build returns the aggregated shopping list of the actor. An empty cart
// yields an empty list.
func (s *ShoppingListService) Build(ctx context.Context, actor types.Actor) ([]types.ShoppingItem, error) {
	if actor.IsAnonymous() {
		return nil, authRequired("download a shopping list")
	}

	var lines []CartLine
	err := s.db.WithContext(ctx).
		Table("shopping_cart_entries AS c").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, ri.amount AS amount").
		Joins("JOIN recipe_ingredients AS ri ON ri.recipe_id = c.recipe_id").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Where("c.user_id = ?", actor.UserID).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}

	items, err := Aggregate(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	s.log.Debug("built shopping list", "user_id", actor.UserID, "lines", len(lines), "items", len(items))
	return items, nil
}

// ManifestRenderer turns an aggregated shopping list into a downloadable
// document.
type ManifestRenderer interface {
	ContentType() string
	FileName() string
	Render(w io.Writer, items []types.ShoppingItem) error
}

// TextManifest renders a plain text list:
//
//	Shopping list:
//	1 flour - 300 g
//	2 milk - 0.5 l
type TextManifest struct{}

func (TextManifest) ContentType() string { return "text/plain; charset=utf-8" }

func (TextManifest) FileName() string { return "shopping_list.txt" }

func (TextManifest) Render(w io.Writer, items []types.ShoppingItem) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("Shopping list:\n"); err != nil {
		return err
	}
	for i, item := range items {
		_, err := fmt.Fprintf(bw, "%d %s - %s %s\n",
			i+1, item.Name, strconv.FormatFloat(item.Amount, 'f', -1, 64), item.MeasurementUnit)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
