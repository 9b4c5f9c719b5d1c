package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its validate tags. Failures wrap ErrInvalidInput
// with one readable message per field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("Field '%s' is required", e.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("Field '%s' must be one of [%s]", e.Field(), e.Param()))
		case "len":
			msgs = append(msgs, fmt.Sprintf("Field '%s' must be %s characters long", e.Field(), e.Param()))
		case "numeric":
			msgs = append(msgs, fmt.Sprintf("Field '%s' must be numeric", e.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("Field '%s' must be greater than or equal to %s", e.Field(), e.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("Field '%s' must be less than or equal to %s", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
}
