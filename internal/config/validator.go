package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/go-playground/validator/v10"
)

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errorwrapper.NilArgument("config")
	}

	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("apiversion", func(fl validator.FieldLevel) bool {
		version := fl.Field().Int()
		return version >= MinSupportedAPIVer && version <= MaxSupportedAPIVer
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", errorwrapper.ErrInvalidConfiguration, err)
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		// Drop the root type name, "GlobalConfig.APIConfig.BaseURL" reads as "APIConfig.BaseURL".
		fieldName := e.StructNamespace()
		if i := strings.Index(fieldName, "."); i >= 0 {
			fieldName = fieldName[i+1:]
		}
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", fieldName, e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		messages = append(messages, msg)
	}
	return fmt.Errorf("%w:\n  %s", errorwrapper.ErrInvalidConfiguration, strings.Join(messages, "\n  "))
}
