package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Deps are the external resources the server is built on. Redis is optional;
// without it recipe write rate limits are off.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Images service.ImageStore
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *logger.Logger
}

// New wires services and handlers and mounts every route under /api.
func New(cfg *config.Config, deps Deps, log *logger.Logger) (*Server, error) {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := api.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigins))

	authService := service.NewAuthService(deps.DB, cfg.JWTSecret, log)
	socialService := service.NewSocialService(deps.DB, log)

	v1 := router.Group("/api")
	api.NewHealthHandler(deps.DB, log).RegisterRoutes(v1)
	api.NewAuthHandler(authService, socialService, log).RegisterRoutes(v1)
	api.NewCatalogHandler(service.NewCatalogService(deps.DB, log), authService, log).RegisterRoutes(v1)
	api.NewRecipeHandler(api.RecipeHandlerDeps{
		Recipes:     service.NewRecipeService(deps.DB, deps.Images, log),
		Social:      socialService,
		Shopping:    service.NewShoppingListService(deps.DB, log),
		Auth:        authService,
		CreateLimit: middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RecipeCreateLimit, log),
		UpdateLimit: middleware.NewRecipeModificationRateLimiter(deps.Redis, cfg.RecipeUpdateLimit, log),
	}, log).RegisterRoutes(v1)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
