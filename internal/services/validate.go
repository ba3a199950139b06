package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

var validate = validator.New()

// FieldViolation describes a single failed validation rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates per-field violations for a request payload.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validateStruct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	violations := make([]FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, FieldViolation{
			Field:   strings.ToLower(fe.Field()),
			Message: violationMessage(fe),
		})
	}
	return &ValidationError{Violations: violations}
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
