package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SRdeMora/quimera/internal/types"
)

// Validator validates configuration values.
type Validator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a Validator using go-playground/validator struct tags.
func NewValidator() Validator {
	return &validatorImpl{validate: validator.New()}
}

// Validate checks struct tags and then the per-tier validation hooks.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.ErrCodeConfigValidationFailed, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.ErrCodeConfigValidationFailed,
				"validation error", err)
		}

		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
		return types.NewError(types.ErrCodeConfigValidationFailed,
			"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
	}

	for name, sub := range map[string]interface{ Validate() error }{
		"embedder":      &cfg.Embedder,
		"recency":       &cfg.Recency,
		"tone":          &cfg.Tone,
		"vector":        &cfg.Vector,
		"graph":         &cfg.Graph,
		"observability": &cfg.Observability,
	} {
		if err := sub.Validate(); err != nil {
			return types.WrapError(types.ErrCodeConfigValidationFailed,
				fmt.Sprintf("invalid %s configuration", name), err)
		}
	}

	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got: %v)", e.Namespace(), e.Param(), e.Value())
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("%s must satisfy %s=%s (got: %v)", e.Namespace(), e.Tag(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation rule %q", e.Namespace(), e.Tag())
	}
}
