package main

import (
	"context"
	"errors"
	"log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const demoPassword = "testpassword123"

var demoUsers = []struct {
	email, username, first, last string
	admin                        bool
}{
	{"admin@example.com", "admin", "Admin", "User", true},
	{"john.doe@example.com", "johndoe", "John", "Doe", false},
	{"jane.smith@example.com", "janesmith", "Jane", "Smith", false},
}

var demoTags = []types.CreateTagRequest{
	{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Lunch", Color: "#49B64E", Slug: "lunch"},
	{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
}

// Seeds demo accounts and the default tags for local development. Rows that
// already exist are left alone.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Environment == config.Production {
		log.Fatal("refusing to seed demo data in production")
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

	ctx := context.Background()
	auth := service.NewAuthService(db, cfg.JWTSecret, appLog)
	var admin types.Actor

	for _, u := range demoUsers {
		user, err := auth.Register(ctx, &types.RegisterRequest{
			Email:     u.email,
			Username:  u.username,
			FirstName: u.first,
			LastName:  u.last,
			Password:  demoPassword,
		})
		switch {
		case errors.Is(err, service.ErrConflict):
			appLog.Info("user already exists, skipping", "email", u.email)
			user = &models.User{}
			if err := db.Where("email = ?", u.email).First(user).Error; err != nil {
				appLog.Fatal("failed to load existing user", "email", u.email, "error", err)
			}
		case err != nil:
			appLog.Fatal("failed to create user", "email", u.email, "error", err)
		}

		if u.admin && !user.IsAdmin {
			if err := db.Model(user).Update("is_admin", true).Error; err != nil {
				appLog.Fatal("failed to promote admin", "email", u.email, "error", err)
			}
			user.IsAdmin = true
		}
		if u.admin {
			admin = types.Actor{UserID: user.ID, Username: user.Username, IsAdmin: true}
		}
	}

	catalog := service.NewCatalogService(db, appLog)
	for i := range demoTags {
		if _, err := catalog.CreateTag(ctx, admin, &demoTags[i]); err != nil {
			if errors.Is(err, service.ErrConflict) {
				appLog.Info("tag already exists, skipping", "slug", demoTags[i].Slug)
				continue
			}
			appLog.Fatal("failed to create tag", "slug", demoTags[i].Slug, "error", err)
		}
	}

	appLog.Info("demo data seeded", "users", len(demoUsers), "tags", len(demoTags))
}
