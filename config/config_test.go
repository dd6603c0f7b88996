package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	for _, k := range []string{
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"DB_SSL_MODE", "JWT_SECRET", "REDIS_URL", "AWS_REGION",
		"RECIPE_CREATE_LIMIT", "RECIPE_UPDATE_LIMIT", "REDIS_DB", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "foodgram")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 30, cfg.RecipeCreateLimit)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, "host=db port=5432 user=postgres password=postgres dbname=foodgram sslmode=disable", cfg.DSN())
}

func TestLoadConfigFromSecrets(t *testing.T) {
	dir := isolate(t)
	secrets := map[string]string{
		"db_user":     "secret-user",
		"db_password": "secret-pass",
		"jwt_secret":  "secret-jwt\n",
	}
	for name, value := range secrets {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o600))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret-user", cfg.DBUser)
	assert.Equal(t, "secret-pass", cfg.DBPassword)
	assert.Equal(t, "secret-jwt", cfg.JWTSecret)
}

func TestEnvironmentVariableWinsOverSecret(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-file"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
}

func TestLoadConfigValidation(t *testing.T) {
	isolate(t)
	t.Setenv("RECIPE_CREATE_LIMIT", "0")

	_, err := LoadConfig()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "DB_USER")
	assert.Contains(t, fields, "DB_PASSWORD")
	assert.Contains(t, fields, "JWT_SECRET")
	assert.Contains(t, fields, "RECIPE_CREATE_LIMIT")
}

func TestLoadConfigRejectsBadInteger(t *testing.T) {
	isolate(t)
	t.Setenv("REDIS_DB", "zero")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestSQLiteNotAllowedInProduction(t *testing.T) {
	isolate(t)
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("AWS_REGION", "eu-west-1")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "sqlite is not allowed in production")
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	t.Setenv("ENV", "prod")
	assert.Equal(t, Production, GetEnvironment())
	assert.Equal(t, "production", GetEnvironment().LogMode())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}

func TestS3PublicURL(t *testing.T) {
	s := &S3Config{BucketName: "images", Region: "eu-west-1"}
	assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/recipes/a.png", s.PublicURL("recipes/a.png"))
}

func TestCORSOriginsList(t *testing.T) {
	isolate(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ORIGINS", " https://foodgram.example.com, ,http://localhost:3000 ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://foodgram.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
}
