package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bistrokit/bistro/pkg/api"
)

// Validate checks the configuration for invalid values.
//
// Struct-level `validate` tags are enforced first, then the cross-field rules
// the tags cannot express (database settings, backup bucket, JWT secret
// length).
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := cfg.Backup.Validate(); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	if cfg.API.Enabled {
		secret := cfg.API.GetJWTSecret()
		if secret == "" {
			return fmt.Errorf("api: JWT secret is required when the ops API is enabled "+
				"(set api.jwt.secret or %s)", api.EnvAPISecret)
		}
		if len(secret) < 32 {
			return errors.New("api: JWT secret must be at least 32 characters")
		}
	}

	if cfg.Journal.Enabled && !cfg.Journal.InMemory && cfg.Journal.Path == "" {
		return errors.New("journal: path is required when the journal is enabled")
	}

	return nil
}

// describeFieldError renders one validator error as a readable message.
func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
