package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration. DBDriver is "postgres" or "sqlite".
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// MigrationsDir holds optional raw SQL migrations applied after the schema.
	MigrationsDir string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Image storage
	S3Bucket  string
	AWSRegion string

	// Rate limits for recipe writes, per hour
	RecipeCreateLimit int
	RecipeUpdateLimit int

	LogMode string
}

// LoadConfig creates a new Config from environment variables, falling back to
// Docker secrets for anything unset.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	if env == Development {
		// A missing .env file is fine; real env vars still apply.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Environment:   env,
		ServerPort:    lookupDefault("server_port", "8080"),
		ServerHost:    lookupDefault("server_host", "0.0.0.0"),
		CORSOrigins:   splitList(lookupDefault("cors_origins", "http://localhost:3000,http://localhost:5173")),
		DBDriver:      lookupDefault("db_driver", "postgres"),
		DBHost:        lookupDefault("db_host", "localhost"),
		DBPort:        lookupDefault("db_port", "5432"),
		DBUser:        lookup("db_user"),
		DBPassword:    lookup("db_password"),
		DBName:        lookupDefault("db_name", "foodgram"),
		DBSSLMode:     lookupDefault("db_ssl_mode", "disable"),
		SQLitePath:    lookupDefault("sqlite_path", "foodgram.db"),
		MigrationsDir: lookup("migrations_dir"),
		RedisHost:     lookupDefault("redis_host", "localhost"),
		RedisPort:     lookupDefault("redis_port", "6379"),
		RedisPassword: lookup("redis_password"),
		RedisURL:      lookup("redis_url"),
		JWTSecret:     lookup("jwt_secret"),
		S3Bucket:      lookupDefault("s3_bucket_name", "foodgram-recipe-images"),
		AWSRegion:     lookup("aws_region"),
		LogMode:       lookupDefault("log_mode", env.LogMode()),
	}

	var err error
	if cfg.RedisDB, err = lookupInt("redis_db", 0); err != nil {
		return nil, err
	}
	if cfg.RecipeCreateLimit, err = lookupInt("recipe_create_limit", 30); err != nil {
		return nil, err
	}
	if cfg.RecipeUpdateLimit, err = lookupInt("recipe_update_limit", 60); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// lookup reads NAME from the environment, then the Docker secret file "name".
func lookup(name string) string {
	if v := os.Getenv(strings.ToUpper(name)); v != "" {
		return v
	}
	return readSecret(name)
}

func lookupDefault(name, def string) string {
	if v := lookup(name); v != "" {
		return v
	}
	return def
}

func lookupInt(name string, def int) (int, error) {
	v := lookup(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(name), err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	data, err := os.ReadFile(filepath.Join(secretsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
