package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Echo compatible validator with proper tag semantics
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Validates a single value against a tag expression, e.g. `Var(email, "required,email")`
func (cv *CustomValidator) Var(field any, tag string) error {
	return cv.validator.Var(field, tag)
}

// rejects strings made only of whitespace, `required` alone lets them through
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}

	return strings.TrimSpace(field.String()) != ""
}

// fieldName reports a struct field under the name the caller sent it as,
// trying path params, form fields and json keys in that order.
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"param", "form", "json"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		switch name {
		case "":
			continue
		case "-":
			return ""
		}
		return name
	}
	return ""
}

func Create() CustomValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldName)

	// only fails if the tag was already registered
	_ = validate.RegisterValidation("notblank", notBlank)

	return CustomValidator{validator: validate}
}
