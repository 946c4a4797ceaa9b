package mailer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

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
		return name
	})
	return v
}

// ValidateMessage checks msg against the message schema.
// Failures wrap ErrInvalidMessage; a message without any body also wraps ErrNoContent.
func ValidateMessage(msg Message) error {
	if err := validate.Struct(msg); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMessage, describe(err))
	}
	if msg.Text == "" && msg.HTML == "" && msg.TemplateHTML == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrNoContent)
	}
	return nil
}

// describe flattens validator errors into one readable line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address, got %q", field, fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %q", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
