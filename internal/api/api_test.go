package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

const testSecret = "api-test-secret-that-is-long-enough"

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *service.AuthService
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, api.RegisterValidators())

	db := testhelpers.SetupSQLiteDB(t)
	log := logger.Nop()
	auth := service.NewAuthService(db, testSecret, log)
	catalog := service.NewCatalogService(db, log)
	social := service.NewSocialService(db, log)

	router := gin.New()
	group := router.Group("/api")
	api.NewHealthHandler(db, log).RegisterRoutes(group)
	api.NewAuthHandler(auth, social, log).RegisterRoutes(group)
	api.NewCatalogHandler(catalog, auth, log).RegisterRoutes(group)
	api.NewRecipeHandler(api.RecipeHandlerDeps{
		Recipes:  service.NewRecipeService(db, mocks.NewImageStore("https://img.example.com/recipe.png"), log),
		Social:   social,
		Shopping: service.NewShoppingListService(db, log),
		Auth:     auth,
	}, log).RegisterRoutes(group)

	return &testAPI{t: t, db: db, router: router, auth: auth}
}

// tokenFor issues a token for a freshly created user.
func (a *testAPI) tokenFor(user *models.User) string {
	token, err := a.auth.GenerateToken(user)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	a := setupAPI(t)
	w := a.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())
}

func TestRegisterLoginAndMe(t *testing.T) {
	a := setupAPI(t)

	w := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "cook@example.com", "username": "cook",
		"first_name": "Julia", "last_name": "Child", "password": "s3cret-password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "cook@example.com", "username": "cook2",
		"first_name": "Julia", "last_name": "Child", "password": "s3cret-password",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{
		"email": "cook@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{
		"email": "cook@example.com", "password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[types.TokenResponse](t, w).AuthToken
	require.NotEmpty(t, token)

	w = a.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cook", decode[types.UserView](t, w).Username)

	w = a.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterBindingErrorNamesField(t *testing.T) {
	a := setupAPI(t)

	w := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "username": "cook",
		"first_name": "Julia", "last_name": "Child", "password": "s3cret-password",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[api.ErrorResponse](t, w)
	assert.Equal(t, "email", body.Field)
}

type recipeWorld struct {
	*testAPI
	author, reader, admin *models.User
	authorTok, readerTok  string
	adminTok              string
	breakfast             *models.Tag
	flour, eggs           *models.Ingredient
}

func setupRecipeWorld(t *testing.T) *recipeWorld {
	a := setupAPI(t)
	w := &recipeWorld{testAPI: a}
	w.author = testhelpers.CreateUser(t, a.db, false)
	w.reader = testhelpers.CreateUser(t, a.db, false)
	w.admin = testhelpers.CreateUser(t, a.db, true)
	w.authorTok = a.tokenFor(w.author)
	w.readerTok = a.tokenFor(w.reader)
	w.adminTok = a.tokenFor(w.admin)
	w.breakfast = testhelpers.CreateTag(t, a.db, "Breakfast", "#E26C2D", "breakfast")
	w.flour = testhelpers.CreateIngredient(t, a.db, "flour", "g")
	w.eggs = testhelpers.CreateIngredient(t, a.db, "eggs", "pcs")
	return w
}

func (w *recipeWorld) recipeBody(name string) types.RecipeWriteRequest {
	return types.RecipeWriteRequest{
		Name:        name,
		Text:        "Mix and fry.",
		Image:       testhelpers.PNGDataURI(),
		CookingTime: 15,
		Tags:        []uuid.UUID{w.breakfast.ID},
		Ingredients: []types.IngredientAmount{
			{ID: w.flour.ID, Amount: 200},
			{ID: w.eggs.ID, Amount: 2},
		},
	}
}

func (w *recipeWorld) createRecipe(name string) types.RecipeView {
	res := w.do(http.MethodPost, "/api/recipes", w.authorTok, w.recipeBody(name))
	require.Equal(w.t, http.StatusCreated, res.Code, res.Body.String())
	return decode[types.RecipeView](w.t, res)
}

func TestRecipeCRUD(t *testing.T) {
	w := setupRecipeWorld(t)

	created := w.createRecipe("Pancakes")
	assert.Equal(t, "https://img.example.com/recipe.png", created.Image)
	assert.Len(t, created.Ingredients, 2)

	res := w.do(http.MethodGet, "/api/recipes/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Pancakes", decode[types.RecipeView](t, res).Name)

	res = w.do(http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	page := decode[types.Page[types.RecipeView]](t, res)
	assert.Equal(t, int64(1), page.Count)

	update := w.recipeBody("Fluffy pancakes")
	update.Image = ""
	update.Ingredients = []types.IngredientAmount{{ID: w.eggs.ID, Amount: 3}}

	res = w.do(http.MethodPatch, "/api/recipes/"+created.ID.String(), w.readerTok, update)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = w.do(http.MethodPatch, "/api/recipes/"+created.ID.String(), w.authorTok, update)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	updated := decode[types.RecipeView](t, res)
	assert.Equal(t, "Fluffy pancakes", updated.Name)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, 3.0, updated.Ingredients[0].Amount)

	res = w.do(http.MethodDelete, "/api/recipes/"+created.ID.String(), w.adminTok, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = w.do(http.MethodGet, "/api/recipes/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = w.do(http.MethodGet, "/api/recipes/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCreateRecipeErrors(t *testing.T) {
	w := setupRecipeWorld(t)

	res := w.do(http.MethodPost, "/api/recipes", "", w.recipeBody("Pancakes"))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	body := w.recipeBody("Pancakes")
	body.CookingTime = 0
	res = w.do(http.MethodPost, "/api/recipes", w.authorTok, body)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "cooking_time", decode[api.ErrorResponse](t, res).Field)

	body = w.recipeBody("Pancakes")
	body.Tags = append(body.Tags, w.breakfast.ID)
	res = w.do(http.MethodPost, "/api/recipes", w.authorTok, body)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "tags", decode[api.ErrorResponse](t, res).Field)

	body = w.recipeBody("Pancakes")
	body.Ingredients[0].ID = uuid.New()
	res = w.do(http.MethodPost, "/api/recipes", w.authorTok, body)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "ingredients", decode[api.ErrorResponse](t, res).Field)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", bytes.NewBufferString(`{"name": 5}`))
	req.Header.Set("Authorization", "Bearer "+w.authorTok)
	rec := httptest.NewRecorder()
	w.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var n int64
	require.NoError(t, w.db.Model(&models.Recipe{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFavoriteAndCartToggles(t *testing.T) {
	w := setupRecipeWorld(t)
	recipe := w.createRecipe("Pancakes")

	for _, path := range []string{"favorite", "shopping_cart"} {
		t.Run(path, func(t *testing.T) {
			url := "/api/recipes/" + recipe.ID.String() + "/" + path

			res := w.do(http.MethodPost, url, w.readerTok, nil)
			require.Equal(t, http.StatusCreated, res.Code)
			assert.Equal(t, recipe.ID, decode[types.RecipeShortView](t, res).ID)

			res = w.do(http.MethodPost, url, w.readerTok, nil)
			assert.Equal(t, http.StatusConflict, res.Code)

			res = w.do(http.MethodDelete, url, w.readerTok, nil)
			assert.Equal(t, http.StatusNoContent, res.Code)

			res = w.do(http.MethodDelete, url, w.readerTok, nil)
			assert.Equal(t, http.StatusBadRequest, res.Code)

			res = w.do(http.MethodPost, "/api/recipes/"+uuid.NewString()+"/"+path, w.readerTok, nil)
			assert.Equal(t, http.StatusNotFound, res.Code)

			res = w.do(http.MethodPost, url, "", nil)
			assert.Equal(t, http.StatusUnauthorized, res.Code)
		})
	}
}

func TestSubscriptions(t *testing.T) {
	w := setupRecipeWorld(t)
	w.createRecipe("Pancakes")
	w.createRecipe("Waffles")

	res := w.do(http.MethodPost, "/api/users/"+w.reader.ID.String()+"/subscribe", w.readerTok, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "cannot follow yourself", decode[api.ErrorResponse](t, res).Error)

	res = w.do(http.MethodPost, "/api/users/"+w.author.ID.String()+"/subscribe", w.readerTok, nil)
	require.Equal(t, http.StatusCreated, res.Code)

	res = w.do(http.MethodPost, "/api/users/"+w.author.ID.String()+"/subscribe", w.readerTok, nil)
	assert.Equal(t, http.StatusConflict, res.Code)

	res = w.do(http.MethodGet, "/api/users/subscriptions?recipes_limit=1", w.readerTok, nil)
	require.Equal(t, http.StatusOK, res.Code)
	page := decode[types.Page[types.SubscriptionView]](t, res)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(2), page.Results[0].RecipesCount)
	assert.Len(t, page.Results[0].Recipes, 1)

	res = w.do(http.MethodGet, "/api/users/"+w.author.ID.String(), w.readerTok, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, decode[types.UserView](t, res).IsSubscribed)

	res = w.do(http.MethodDelete, "/api/users/"+w.author.ID.String()+"/subscribe", w.readerTok, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
	res = w.do(http.MethodDelete, "/api/users/"+w.author.ID.String()+"/subscribe", w.readerTok, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestDownloadShoppingCart(t *testing.T) {
	w := setupRecipeWorld(t)
	pancakes := w.createRecipe("Pancakes")
	waffles := w.createRecipe("Waffles")

	res := w.do(http.MethodGet, "/api/recipes/download_shopping_cart", w.readerTok, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Shopping list is empty", res.Body.String())
	assert.Empty(t, res.Header().Get("Content-Disposition"))

	for _, r := range []types.RecipeView{pancakes, waffles} {
		require.Equal(t, http.StatusCreated, w.do(http.MethodPost, "/api/recipes/"+r.ID.String()+"/shopping_cart", w.readerTok, nil).Code)
	}

	res = w.do(http.MethodGet, "/api/recipes/download_shopping_cart", w.readerTok, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, `attachment; filename="shopping_list.txt"`, res.Header().Get("Content-Disposition"))
	assert.Contains(t, res.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "Shopping list:\n1 eggs - 4 pcs\n2 flour - 400 g\n", res.Body.String())

	res = w.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRecipeListFilters(t *testing.T) {
	w := setupRecipeWorld(t)
	pancakes := w.createRecipe("Pancakes")
	w.createRecipe("Waffles")
	require.Equal(t, http.StatusCreated, w.do(http.MethodPost, "/api/recipes/"+pancakes.ID.String()+"/favorite", w.readerTok, nil).Code)

	res := w.do(http.MethodGet, "/api/recipes?is_favorited=1", w.readerTok, nil)
	require.Equal(t, http.StatusOK, res.Code)
	page := decode[types.Page[types.RecipeView]](t, res)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	res = w.do(http.MethodGet, "/api/recipes?tags=breakfast&limit=1", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	page = decode[types.Page[types.RecipeView]](t, res)
	assert.Equal(t, int64(2), page.Count)
	assert.Len(t, page.Results, 1)

	res = w.do(http.MethodGet, "/api/recipes?author=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = w.do(http.MethodGet, "/api/recipes?is_favorited=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	w := setupRecipeWorld(t)
	w.createRecipe("Pancakes")

	res := w.do(http.MethodGet, "/api/ingredients?name=fl", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	ingredients := decode[[]types.IngredientView](t, res)
	require.Len(t, ingredients, 1)
	assert.Equal(t, "flour", ingredients[0].Name)

	res = w.do(http.MethodDelete, "/api/ingredients/"+w.flour.ID.String(), w.adminTok, nil)
	assert.Equal(t, http.StatusConflict, res.Code)

	res = w.do(http.MethodPost, "/api/ingredients", w.readerTok, map[string]string{"name": "rice", "measurement_unit": "g"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = w.do(http.MethodPost, "/api/tags", w.adminTok, map[string]string{"name": "Dinner", "color": "blue"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "color", decode[api.ErrorResponse](t, res).Field)

	res = w.do(http.MethodPost, "/api/tags", w.adminTok, map[string]string{"name": "Dinner", "color": "#8775D2", "slug": "Not A Slug"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "slug", decode[api.ErrorResponse](t, res).Field)

	res = w.do(http.MethodPost, "/api/tags", w.adminTok, map[string]string{"name": "Dinner", "color": "#8775D2"})
	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "dinner", decode[types.TagView](t, res).Slug)

	res = w.do(http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decode[[]types.TagView](t, res), 2)
}
