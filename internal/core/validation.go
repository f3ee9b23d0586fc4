package core

// validation.go provides field-level validation for checklist submissions,
// new vehicles and snapshot headers.
//
// Validation collects every problem instead of stopping at the first, so a
// form can highlight all missing fields in one round trip. A failed result
// converts into an error that wraps ErrValidation.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/inspections/internal/tabular"
)

// ErrValidation is wrapped by every error produced from a ValidationResult.
var ErrValidation = errors.New("validation failed")

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the outcome of validating one input.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func newValidationResult() ValidationResult {
	return ValidationResult{Valid: true}
}

// add records a failure.
func (r *ValidationResult) add(field, value, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

// require records a "required field is empty" failure when value is blank.
func (r *ValidationResult) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		r.add(field, "", "required field is empty")
	}
}

// Fields returns the names of the failing fields in order.
func (r ValidationResult) Fields() []string {
	fields := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

// Err returns nil for a valid result, otherwise a *ValidationErrors.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationErrors{Errors: r.Errors}
}

// ValidationErrors is the error form of a failed ValidationResult.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		parts[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationErrors) Unwrap() error {
	return ErrValidation
}

// ValidateHeader checks a parsed table against a dataset's field specs:
// required columns must be present and no known column may appear twice.
// Unknown columns are allowed and ignored by decoders.
func ValidateHeader(specs []FieldSpec, table tabular.Table) ValidationResult {
	result := newValidationResult()

	for _, spec := range specs {
		if spec.Required && !table.HasColumn(spec.Name) {
			result.add(spec.Name, "", "missing required column")
		}
	}

	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		known[spec.Name] = true
	}
	for _, dup := range table.Duplicates() {
		if known[dup] {
			result.add(dup, "", "duplicate column in header")
		}
	}

	return result
}
