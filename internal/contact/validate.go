package contact

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const minMessageLength = 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report errors under the JSON field name so the error map matches what
	// the form renders.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate normalizes and validates a contact submission. Every rule is
// evaluated independently so all applicable field errors surface together.
// The function has no side effects.
func Validate(raw Payload) ValidationResult {
	data := normalize(raw)
	fieldErrors := map[string]string{}

	if err := validate.Struct(data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fieldErrors[fe.Field()] = messageFor(fe)
			}
		}
	}

	if _, seen := fieldErrors["email"]; !seen && data.Email != "" {
		if IsDisposableDomain(EmailDomain(data.Email)) {
			fieldErrors["email"] = "Please use a work email address."
		}
	}

	// Bots that fill every field trip the hidden honeypot.
	if data.Website != "" {
		fieldErrors["website"] = "Spam detected."
	}

	if data.CaptchaAnswer == "" || data.CaptchaToken == "" {
		fieldErrors["captchaAnswer"] = "Please complete the human check."
	}

	return ValidationResult{
		OK:     len(fieldErrors) == 0,
		Errors: fieldErrors,
		Data:   data,
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		return "Please enter your name."
	case "email":
		if fe.Tag() == "required" {
			return "Please enter an email address."
		}
		return "Please enter a valid email address."
	case "message":
		if fe.Tag() == "required" {
			return "Please add a short message."
		}
		return fmt.Sprintf("Message must be at least %d characters.", minMessageLength)
	default:
		return "Invalid value."
	}
}
