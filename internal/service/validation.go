package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/domain"
)

// ValidationError lists invalid fields by their JSON path
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FormValidator checks wizard steps against their validation tags
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator creates a validator that reports JSON field names
func NewFormValidator() *FormValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &FormValidator{validate: v}
}

// ValidateStep decodes raw as the named step and validates it
func (v *FormValidator) ValidateStep(step string, raw json.RawMessage) (*domain.StepValidationResponse, error) {
	var target interface{}
	switch step {
	case domain.StepCompany:
		target = &domain.CompanyStep{}
	case domain.StepPortfolio:
		target = &domain.PortfolioStep{}
	case domain.StepPricing:
		target = &domain.PricingStep{}
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownStep, step)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	resp := &domain.StepValidationResponse{Step: step, Valid: true}
	if err := v.Validate(target); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		resp.Valid = false
		resp.Errors = verr.Fields
	}
	return resp, nil
}

// ValidateForm validates every step of a complete form
func (v *FormValidator) ValidateForm(form *domain.LeadForm) error {
	return v.Validate(form)
}

// Validate runs the struct validation and converts failures to *ValidationError
func (v *FormValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fieldPath(fe.Namespace())] = errorMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name: "LeadForm.company.email" -> "company.email"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	case "min", "gte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters long", fe.Param())
	case "uppercase":
		return "Must be upper case"
	case "gtefield":
		return "Must not be lower than " + fe.Param()
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
	}
}
