package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteToggle(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	ctx := context.Background()
	svc := service.NewSocialService(db, logger.Nop())

	author := testhelpers.CreateUser(t, db, false)
	reader := testhelpers.ActorFor(testhelpers.CreateUser(t, db, false))
	tag := testhelpers.CreateTag(t, db, "Soup", "#49B64E", "soup")
	water := testhelpers.CreateIngredient(t, db, "water", "ml")
	recipe := testhelpers.CreateRecipe(t, db, author, "Broth", []*models.Tag{tag}, map[*models.Ingredient]float64{water: 500})

	outcome, short, err := svc.AddFavorite(ctx, reader, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Added, outcome)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "Broth", short.Name)

	outcome, _, err = svc.AddFavorite(ctx, reader, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.AlreadyPresent, outcome)

	favorites, err := svc.ListFavorites(ctx, reader)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, recipe.ID, favorites[0].ID)

	outcome, err = svc.RemoveFavorite(ctx, reader, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Removed, outcome)

	outcome, err = svc.RemoveFavorite(ctx, reader, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.NotPresent, outcome)

	_, _, err = svc.AddFavorite(ctx, reader, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, _, err = svc.AddFavorite(ctx, types.Anonymous, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAuthRequired)
}

func TestCartToggle(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	ctx := context.Background()
	svc := service.NewSocialService(db, logger.Nop())

	author := testhelpers.CreateUser(t, db, false)
	shopper := testhelpers.ActorFor(testhelpers.CreateUser(t, db, false))
	tag := testhelpers.CreateTag(t, db, "Soup", "#49B64E", "soup")
	water := testhelpers.CreateIngredient(t, db, "water", "ml")
	recipe := testhelpers.CreateRecipe(t, db, author, "Broth", []*models.Tag{tag}, map[*models.Ingredient]float64{water: 500})

	outcome, _, err := svc.AddToCart(ctx, shopper, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Added, outcome)

	outcome, _, err = svc.AddToCart(ctx, shopper, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.AlreadyPresent, outcome)

	cart, err := svc.ListCart(ctx, shopper)
	require.NoError(t, err)
	assert.Len(t, cart, 1)

	outcome, err = svc.RemoveFromCart(ctx, shopper, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Removed, outcome)

	outcome, err = svc.RemoveFromCart(ctx, shopper, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.NotPresent, outcome)

	_, err = svc.RemoveFromCart(ctx, shopper, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestConcurrentAddToCartAddsOnce(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	ctx := context.Background()
	svc := service.NewSocialService(db, logger.Nop())

	author := testhelpers.CreateUser(t, db, false)
	shopper := testhelpers.ActorFor(testhelpers.CreateUser(t, db, false))
	tag := testhelpers.CreateTag(t, db, "Soup", "#49B64E", "soup")
	water := testhelpers.CreateIngredient(t, db, "water", "ml")
	recipe := testhelpers.CreateRecipe(t, db, author, "Broth", []*models.Tag{tag}, map[*models.Ingredient]float64{water: 500})

	const callers = 8
	outcomes := make([]service.MembershipOutcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, _, err := svc.AddToCart(ctx, shopper, recipe.ID)
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	added := 0
	for _, o := range outcomes {
		if o == service.Added {
			added++
		} else {
			assert.Equal(t, service.AlreadyPresent, o)
		}
	}
	assert.Equal(t, 1, added)

	var n int64
	require.NoError(t, db.Model(&models.ShoppingCartEntry{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSubscribe(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	ctx := context.Background()
	svc := service.NewSocialService(db, logger.Nop())

	author := testhelpers.CreateUser(t, db, false)
	follower := testhelpers.ActorFor(testhelpers.CreateUser(t, db, false))

	_, _, err := svc.Subscribe(ctx, follower, follower.UserID)
	requireField(t, err, service.ErrValidation, "author")
	var n int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)

	outcome, view, err := svc.Subscribe(ctx, follower, author.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Added, outcome)
	assert.Equal(t, author.Username, view.Username)
	assert.True(t, view.IsSubscribed)

	outcome, _, err = svc.Subscribe(ctx, follower, author.ID)
	require.NoError(t, err)
	assert.Equal(t, service.AlreadyPresent, outcome)

	_, _, err = svc.Subscribe(ctx, follower, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)

	outcome, err = svc.Unsubscribe(ctx, follower, author.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Removed, outcome)

	outcome, err = svc.Unsubscribe(ctx, follower, author.ID)
	require.NoError(t, err)
	assert.Equal(t, service.NotPresent, outcome)
}

func TestListSubscriptions(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	ctx := context.Background()
	svc := service.NewSocialService(db, logger.Nop())

	prolific := testhelpers.CreateUser(t, db, false)
	quiet := testhelpers.CreateUser(t, db, false)
	unfollowed := testhelpers.CreateUser(t, db, false)
	follower := testhelpers.ActorFor(testhelpers.CreateUser(t, db, false))

	tag := testhelpers.CreateTag(t, db, "Soup", "#49B64E", "soup")
	water := testhelpers.CreateIngredient(t, db, "water", "ml")
	for i := 0; i < 4; i++ {
		testhelpers.CreateRecipe(t, db, prolific, "Broth", []*models.Tag{tag}, map[*models.Ingredient]float64{water: 500})
	}
	testhelpers.CreateRecipe(t, db, unfollowed, "Tea", []*models.Tag{tag}, map[*models.Ingredient]float64{water: 200})

	for _, author := range []*models.User{prolific, quiet} {
		_, _, err := svc.Subscribe(ctx, follower, author.ID)
		require.NoError(t, err)
	}

	page, err := svc.ListSubscriptions(ctx, follower, 2, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Results, 2)

	byID := map[uuid.UUID]types.SubscriptionView{}
	for _, s := range page.Results {
		assert.True(t, s.IsSubscribed)
		byID[s.ID] = s
	}
	assert.Equal(t, int64(4), byID[prolific.ID].RecipesCount)
	assert.Len(t, byID[prolific.ID].Recipes, 2)
	assert.Zero(t, byID[quiet.ID].RecipesCount)
	assert.Empty(t, byID[quiet.ID].Recipes)

	_, err = svc.ListSubscriptions(ctx, types.Anonymous, 0, 0, 1)
	assert.ErrorIs(t, err, service.ErrAuthRequired)
}
