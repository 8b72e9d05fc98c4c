package config

import (
	"fmt"
	"net/url"
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

// ValidateConfig checks if the configuration is usable in the current
// environment. Development gets away with defaults; production does not.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if IsProduction() || IsCI() {
		if cfg.JWTSecret == "" {
			errors = append(errors, "JWT_SECRET (or the jwt_secret secret) is required")
		}
		if cfg.DBPassword == "" {
			errors = append(errors, "DB_PASSWORD (or the db_password secret) is required")
		}
	}

	if cfg.MaxSkillEntries < 1 || cfg.MaxSkillEntries > 10 {
		errors = append(errors, "MAX_SKILL_ENTRIES must be between 1 and 10")
	}

	if cfg.BaseURL == "" {
		errors = append(errors, "BASE_URL is required")
	} else if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("BASE_URL is not a valid URL: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
