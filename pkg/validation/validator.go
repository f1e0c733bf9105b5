package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate

	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`) // E.164 format
	plateRegex = regexp.MustCompile(`^[A-Za-z0-9 \-]{2,16}$`)
)

func init() {
	Validate = validator.New()
	_ = RegisterRules(Validate)
}

// RegisterRules installs the domain validation tags on a validator
// instance. It is applied to gin's binding engine at startup so request
// structs can use the same tags.
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"phone":          validatePhone,
		"plate":          validatePlate,
		"hook_number":    validateHookNumber,
		"request_status": validateRequestStatus,
		"driver_status":  validateDriverStatus,
		"payment_method": validatePaymentMethod,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// ValidationError aggregates per-field validation failures.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator.ValidationErrors into a field error map.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.Errors[strings.ToLower(fe.Field())] = messageForTag(fe)
	}
	return ve
}

// AddError records a failure for a field.
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors reports whether any failures were recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationError) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.Errors[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be a valid E.164 phone number"
	case "plate":
		return "must be a valid license plate"
	case "hook_number":
		return "must be a positive hook number"
	case "request_status":
		return "is not a valid retrieval status"
	case "driver_status":
		return "is not a valid driver status"
	case "payment_method":
		return "is not a supported payment method"
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validatePhone checks if phone number is in E.164 format
func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// validatePlate checks license plate shape; exact formats vary by jurisdiction
func validatePlate(fl validator.FieldLevel) bool {
	return plateRegex.MatchString(fl.Field().String())
}

// validateHookNumber checks that a hook number is positive. Whether the
// number exists in the configured pool is decided against the database.
func validateHookNumber(fl validator.FieldLevel) bool {
	return fl.Field().Int() > 0
}

func validateRequestStatus(fl validator.FieldLevel) bool {
	return contains([]string{"pending", "assigned", "in_progress", "ready", "completed", "cancelled"}, fl.Field().String())
}

func validateDriverStatus(fl validator.FieldLevel) bool {
	return contains([]string{"offline", "online", "busy", "break"}, fl.Field().String())
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return contains([]string{"cash", "card"}, fl.Field().String())
}

func contains(slice []string, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
