package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Loads the ingredient catalog from a JSON array of
// {"name": "...", "measurement_unit": "..."} objects.
func main() {
	path := flag.String("file", "data/ingredients.json", "path to the ingredients JSON file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	raw, err := os.ReadFile(*path)
	if err != nil {
		appLog.Fatal("failed to read ingredients file", "path", *path, "error", err)
	}
	var entries []types.CreateIngredientRequest
	if err := json.Unmarshal(raw, &entries); err != nil {
		appLog.Fatal("failed to parse ingredients file", "path", *path, "error", err)
	}

	db, err := database.New(cfg, appLog)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, appLog); err != nil {
		appLog.Fatal("failed to run migrations", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	inserted, err := service.NewCatalogService(db, appLog).ImportIngredients(ctx, entries)
	if err != nil {
		appLog.Fatal("failed to load ingredients", "error", err)
	}
	appLog.Info("ingredients loaded", "inserted", inserted, "skipped", int64(len(entries))-inserted)
}
