package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidKind          = errors.New("invalid_kind")
	ErrInvalidField         = errors.New("invalid_field")
	ErrLineItemNotFound     = errors.New("line_item_not_found")
	ErrInvalidSavedLineItem = errors.New("invalid_saved_line_item")
	ErrNegativeMagnitude    = errors.New("invalid_magnitude")
	ErrDepositOutOfRange    = errors.New("invalid_deposit_percent")
	ErrDuplicateNumber      = errors.New("duplicate_number")
	ErrNotFound             = errors.New("not_found")
)

// Codes attached to FieldError.
const (
	CodeRequired = "required"
	CodeInvalid  = "invalid"
	CodeNotFound = "not_found"
)

// FieldError describes a single missing or invalid document field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError aggregates every submit-time problem so the caller can show
// all of them at once.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation error"
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation error: missing " + strings.Join(names, ", ")
}

// Add records a field problem.
func (e *ValidationError) Add(field, code, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: message})
}

// OrNil returns nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
