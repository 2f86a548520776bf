package storage

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json field names so errors read the same as the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		panic(err)
	}
	return v
}

// validateNotBlank rejects empty and whitespace-only strings.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (s *Store) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: fieldErrs[0].Field(), Message: describeTag(fieldErrs[0].Tag())}
	}
	return &ValidationError{Field: "input", Message: err.Error()}
}

func (s *Store) checkText(field, value string) error {
	if err := s.validate.Var(value, "notblank"); err != nil {
		return &ValidationError{Field: field, Message: describeTag("notblank")}
	}
	return nil
}

func describeTag(tag string) string {
	switch tag {
	case "notblank":
		return "must not be empty"
	default:
		return "failed " + tag + " validation"
	}
}
