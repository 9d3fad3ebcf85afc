package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/appshell/pkg/store"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	dirs := make(map[string]bool)
	for i, raw := range cfg.Seed.Directories {
		p, err := store.CleanPath(raw)
		if err != nil {
			return fmt.Errorf("seed.directories[%d]: %w", i, err)
		}
		if p == store.Root {
			return fmt.Errorf("seed.directories[%d]: the root always exists and cannot be seeded", i)
		}
		dirs[p] = true
	}

	files := make(map[string]bool)
	for i, file := range cfg.Seed.Files {
		p, err := store.CleanPath(file.Path)
		if err != nil {
			return fmt.Errorf("seed.files[%d]: %w", i, err)
		}
		if p == store.Root {
			return fmt.Errorf("seed.files[%d]: the root is a directory", i)
		}
		if files[p] {
			return fmt.Errorf("seed.files[%d]: duplicate seed file %q", i, p)
		}
		if dirs[p] {
			return fmt.Errorf("seed.files[%d]: %q is also seeded as a directory", i, p)
		}
		files[p] = true
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return errors.New("metrics: port is required when metrics are enabled")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
