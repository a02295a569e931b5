package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/outhook-io/outhook/pkg/errs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var validationErr = errors.New("request validation")

// Validate checks v against its struct tags, folding violations into a
// ValidateError keyed by lowercased field path.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]interface{})
	for _, e := range verrs {
		parts := strings.Split(e.StructNamespace(), ".")
		// drop the root struct name
		if len(parts) > 1 {
			parts = parts[1:]
		}
		for i := range parts {
			parts[i] = strings.ToLower(parts[i])
		}
		fields[strings.Join(parts, ".")] = formatError(e)
	}
	return errs.NewValidateFieldsError(validationErr, fields)
}

func formatError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field missing"
	case "oneof":
		return fmt.Sprintf("invalid value: %v", fe.Value())
	case "gte":
		return fmt.Sprintf("value must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be <= %s", fe.Param())
	case "min":
		return fmt.Sprintf("length must be at least %s", fe.Param())
	case "url":
		return "invalid url"
	}
	return fe.Error()
}
