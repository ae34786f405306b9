package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Error is the body of every non-2xx response. Fields maps a request field
// to what was wrong with it.
type Error struct {
	Fields  *map[string]string `json:"fields,omitempty" validate:"omitempty"`
	Message string             `json:"message"          validate:"required"`
}

const validationMessage = "validation error"

func StringError(err string) Error {
	return Error{Message: err}
}

// FieldError reports a single rejected field.
func FieldError(field, reason string) Error {
	return Error{Message: validationMessage, Fields: &map[string]string{field: reason}}
}

// ValidationError flattens validator failures into Fields, keyed by the
// request name of each field.
func ValidationError(err error) Error {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return StringError(validationMessage)
	}

	fields := make(map[string]string, len(failures))
	for _, f := range failures {
		fields[f.Field()] = describe(f)
	}
	return Error{Message: validationMessage, Fields: &fields}
}

func describe(f validator.FieldError) string {
	switch f.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be an email address"
	case "uuid", "uuid4", "uuid_rfc4122":
		return "must be a uuid"
	case "max":
		return fmt.Sprintf("must be at most %s long", f.Param())
	case "min":
		return fmt.Sprintf("must be at least %s long", f.Param())
	}

	if f.Param() != "" {
		return fmt.Sprintf("failed %s=%s", f.Tag(), f.Param())
	}
	return "failed " + f.Tag()
}
