package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/meshtower/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("endpoint", func(fl validator.FieldLevel) bool {
		return errs.ValidateEndpoint(fl.Field().String()) == nil
	})
}

// formatValidationError reports the first failed constraint using the TOML
// key path, e.g. "cache.backend".
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid configuration")
	}

	e := verrs[0]
	field := keyPath(e.Namespace())
	switch e.Tag() {
	case "oneof":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: must be one of %s, got %q", field, e.Param(), e.Value())
	case "endpoint":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: must be an http or https URL with a host", field)
	case "hostname_port":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: must be host:port, got %q", field, e.Value())
	case "gte", "lte", "max":
		return errs.New(errs.ErrCodeInvalidConfig, "%s: out of range (%s %s)", field, e.Tag(), e.Param())
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "%s: validation failed (%s)", field, e.Tag())
	}
}

// keyPath turns "Config.cache.backend" into "cache.backend".
func keyPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}
