package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report violations under the json field names clients send.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s against its `validate` tags and returns the violations.
// A non-struct argument is a programming error and panics inside validator.
func Struct(s any) Violations {
	v := Violations{}
	err := instance().Struct(s)
	if err == nil {
		return v
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.Add("_", "invalid")
		return v
	}
	for _, fe := range verrs {
		v.Add(fe.Field(), code(fe))
	}
	return v
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "required"
	case "datetime":
		return "invalid_format"
	case "min", "max", "gte", "lte", "gt", "lt":
		return "out_of_range"
	case "oneof":
		return "invalid_choice"
	case "email":
		return "invalid_email"
	case "eqfield":
		return "mismatch"
	case "numeric", "number":
		return "not_a_number"
	default:
		return fe.Tag()
	}
}
