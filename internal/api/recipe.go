package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const emptyShoppingList = "Shopping list is empty"

// RecipeHandler serves recipes, their favorite and cart toggles and the
// shopping list download.
type RecipeHandler struct {
	recipes     service.IRecipeService
	social      service.ISocialService
	shopping    service.IShoppingListService
	renderer    service.ManifestRenderer
	auth        middleware.TokenValidator
	createLimit *middleware.RateLimiter
	updateLimit *middleware.RateLimiter
	log         *logger.Logger
}

// RecipeHandlerDeps groups what the recipe routes need.
type RecipeHandlerDeps struct {
	Recipes     service.IRecipeService
	Social      service.ISocialService
	Shopping    service.IShoppingListService
	Renderer    service.ManifestRenderer
	Auth        middleware.TokenValidator
	CreateLimit *middleware.RateLimiter
	UpdateLimit *middleware.RateLimiter
}

func NewRecipeHandler(deps RecipeHandlerDeps, log *logger.Logger) *RecipeHandler {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = service.TextManifest{}
	}
	return &RecipeHandler{
		recipes:     deps.Recipes,
		social:      deps.Social,
		shopping:    deps.Shopping,
		renderer:    renderer,
		auth:        deps.Auth,
		createLimit: deps.CreateLimit,
		updateLimit: deps.UpdateLimit,
		log:         log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	authRequired := middleware.AuthMiddleware(h.auth)

	create := []gin.HandlerFunc{authRequired}
	if h.createLimit != nil {
		create = append(create, h.createLimit.RateLimitMiddleware())
	}
	update := []gin.HandlerFunc{authRequired}
	if h.updateLimit != nil {
		update = append(update, h.updateLimit.PerRecipeRateLimitMiddleware())
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuth(h.auth), h.ListRecipes)
		recipes.GET("/download_shopping_cart", authRequired, h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuth(h.auth), h.GetRecipe)
		recipes.POST("", append(create, h.CreateRecipe)...)
		recipes.PUT("/:id", append(update, h.UpdateRecipe)...)
		recipes.PATCH("/:id", append(update, h.UpdateRecipe)...)
		recipes.DELETE("/:id", authRequired, h.DeleteRecipe)
		recipes.POST("/:id/favorite", authRequired, h.AddFavorite)
		recipes.DELETE("/:id/favorite", authRequired, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", authRequired, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", authRequired, h.RemoveFromCart)
	}
}

// ListRecipes handles GET /recipes?author=&tags=&is_favorited=&is_in_shopping_cart=&limit=&page=
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filter types.RecipeFilter
	var ok bool

	if raw := c.Query("author"); raw != "" {
		author, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "author", "author must be a user id")
			return
		}
		filter.AuthorID = &author
	}
	filter.TagSlugs = c.QueryArray("tags")
	if filter.IsFavorited, ok = queryBool(c, "is_favorited"); !ok {
		return
	}
	if filter.IsInShoppingCart, ok = queryBool(c, "is_in_shopping_cart"); !ok {
		return
	}
	if filter.Limit, filter.Page, ok = paging(c); !ok {
		return
	}

	page, err := h.recipes.ListRecipes(c.Request.Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, err)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcome, recipe, err := h.social.AddFavorite(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondAdd(c, outcome, recipe, "recipe is already in favorites")
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcome, err := h.social.RemoveFavorite(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondRemove(c, outcome, "recipe is not in favorites")
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcome, recipe, err := h.social.AddToCart(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondAdd(c, outcome, recipe, "recipe is already in the shopping cart")
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcome, err := h.social.RemoveFromCart(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondRemove(c, outcome, "recipe is not in the shopping cart")
}

// DownloadShoppingCart streams the aggregated shopping list as an attachment.
// An empty cart gets a plain message instead.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.shopping.Build(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(items) == 0 {
		c.String(http.StatusOK, emptyShoppingList)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, items); err != nil {
		respondError(c, h.log, fmt.Errorf("failed to render shopping list: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.renderer.FileName()))
	c.Data(http.StatusOK, h.renderer.ContentType(), buf.Bytes())
}
