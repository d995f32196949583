// Package validation checks request payloads and turns failures into
// per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"chatapp/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s. It returns nil or a VALIDATION_ERROR AppError listing
// every failed field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewInternalError(err)
	}

	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{
			Field:   fe.Field(),
			Rule:    ruleName(fe.Tag()),
			Message: Message(fe.Field(), fe.Tag(), fe.Param()),
		})
	}
	return models.NewFieldValidationError(fields...)
}

// Field builds a single-field validation error, e.g. for uniqueness checks.
func Field(field, rule, message string) error {
	return models.NewFieldValidationError(models.FieldError{Field: field, Rule: rule, Message: message})
}

// Message renders the human message for a failed rule on field.
func Message(field, tag, param string) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch tag {
	case "required":
		return capitalize(label) + " is required"
	case "min":
		return fmt.Sprintf("The minimum length of %s is %s %s", label, param, plural("character", param))
	case "max":
		return fmt.Sprintf("The maximum length of %s is %s %s", label, param, plural("character", param))
	case "email":
		return capitalize(label) + " is not valid"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", capitalize(label), param)
	default:
		return capitalize(label) + " is invalid"
	}
}

func ruleName(tag string) string {
	switch tag {
	case "min":
		return "minLength"
	case "max":
		return "maxLength"
	default:
		return tag
	}
}

func plural(word, n string) string {
	if n == "1" {
		return word
	}
	return word + "s"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
