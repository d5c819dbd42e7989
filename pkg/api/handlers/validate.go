package handlers

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/leadgridhq/leadgrid/pkg/domain"
)

// phonePattern is intentionally loose: an optional plus and up to sixteen
// digits. Strict carrier-grade checks live in the phone package.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

// newValidator builds a validator that reports fields under their JSON names
// so error payloads match what the client actually sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

var fieldLabels = map[string]string{
	"firstName":  "First name",
	"lastName":   "Last name",
	"email":      "Email",
	"phone":      "Phone",
	"company":    "Company",
	"city":       "City",
	"state":      "State",
	"source":     "Source",
	"status":     "Status",
	"score":      "Score",
	"leadValue":  "Lead value",
	"lead_value": "Lead value",
	"password":   "Password",
}

// validationFields flattens a validator error into per-field messages. All
// failures are reported together: clients fix one submit, not one field at a
// time.
func validationFields(err error) []domain.FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []domain.FieldError{{Field: "body", Message: "Invalid request body"}}
	}

	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please enter a valid email address"
	case "leadphone":
		return "Please enter a valid phone number"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
