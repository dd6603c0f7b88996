package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.New(cfg, appLog)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, appLog); err != nil {
		appLog.Fatal("failed to run migrations", "error", err)
	}

	// Rate limiting is best effort; the API runs without Redis.
	var redisClient *redis.Client
	if redisClient, err = database.NewRedisClient(cfg, appLog); err != nil {
		appLog.Warn("redis unavailable, recipe rate limits disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	s3Config, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		appLog.Fatal("failed to configure image storage", "error", err)
	}

	srv, err := server.New(cfg, server.Deps{
		DB:     db,
		Redis:  redisClient,
		Images: service.NewS3ImageStore(s3Config, appLog),
	}, appLog)
	if err != nil {
		appLog.Fatal("failed to build server", "error", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			appLog.Fatal("server error", "error", err)
		}
	case sig := <-quit:
		appLog.Info("received signal", "signal", sig.String())
	}

	appLog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("server shutdown error", "error", err)
	}
	appLog.Info("server stopped")
}
