package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs struct tag validation and turns the first failure
// into an ErrValidation with a readable message.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newError(ErrValidation, "invalid request body")
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return newError(ErrValidation, "%s is required", field)
	case "oneof":
		return newError(ErrValidation, "%s must be one of: %s", field, fe.Param())
	case "gt":
		return newError(ErrValidation, "%s must be greater than %s", field, fe.Param())
	case "min", "gte":
		return newError(ErrValidation, "%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return newError(ErrValidation, "%s must be at most %s", field, fe.Param())
	default:
		return newError(ErrValidation, "%s is invalid", field)
	}
}
