package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBUser == "" {
			errs = append(errs, ValidationError{"DB_USER", "is required for postgres"})
		}
		// Only local development may run against a passwordless database.
		if cfg.DBPassword == "" && cfg.Environment != Development {
			errs = append(errs, ValidationError{"DB_PASSWORD", "is required outside development"})
		}
	case "sqlite":
		if cfg.Environment == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not allowed in production"})
		}
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "is required"})
	} else if cfg.Environment == Production && len(cfg.JWTSecret) < 32 {
		errs = append(errs, ValidationError{"JWT_SECRET", "must be at least 32 characters in production"})
	}

	if cfg.Environment == Production && cfg.AWSRegion == "" {
		errs = append(errs, ValidationError{"AWS_REGION", "is required in production"})
	}

	if cfg.RecipeCreateLimit <= 0 {
		errs = append(errs, ValidationError{"RECIPE_CREATE_LIMIT", "must be positive"})
	}
	if cfg.RecipeUpdateLimit <= 0 {
		errs = append(errs, ValidationError{"RECIPE_UPDATE_LIMIT", "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
