package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AuthHandler serves registration, login and user profiles.
type AuthHandler struct {
	auth   service.IAuthService
	social service.ISocialService
	log    *logger.Logger
}

func NewAuthHandler(auth service.IAuthService, social service.ISocialService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, social: social, log: log}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/token/login", h.Login)
		auth.POST("/token/logout", middleware.AuthMiddleware(h.auth), h.Logout)
	}

	users := router.Group("/users")
	{
		users.GET("/me", middleware.AuthMiddleware(h.auth), h.Me)
		users.GET("/me/favorites", middleware.AuthMiddleware(h.auth), h.ListFavorites)
		users.GET("/me/shopping_cart", middleware.AuthMiddleware(h.auth), h.ListCart)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.auth), h.ListSubscriptions)
		users.GET("/:id", middleware.OptionalAuth(h.auth), h.GetUser)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.auth), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.auth), h.Unsubscribe)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, types.UserView{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

// Logout exists for client compatibility; tokens are stateless and simply
// expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	user, err := h.auth.GetUser(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) ListSubscriptions(c *gin.Context) {
	limit, page, ok := paging(c)
	if !ok {
		return
	}
	recipesLimit, ok := queryInt(c, "recipes_limit")
	if !ok {
		return
	}

	result, err := h.social.ListSubscriptions(c.Request.Context(), middleware.ActorFrom(c), recipesLimit, limit, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) ListFavorites(c *gin.Context) {
	recipes, err := h.social.ListFavorites(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *AuthHandler) ListCart(c *gin.Context) {
	recipes, err := h.social.ListCart(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *AuthHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcome, author, err := h.social.Subscribe(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondAdd(c, outcome, author, "already subscribed to this author")
}

func (h *AuthHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcome, err := h.social.Unsubscribe(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondRemove(c, outcome, "not subscribed to this author")
}
