package theatre

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrNotFound indicates a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed or empty required field
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSource indicates a conversion source is missing or of the wrong kind
	ErrInvalidSource = errors.New("invalid conversion source")

	// ErrForbidden indicates the caller lacks the required capability
	ErrForbidden = errors.New("forbidden")

	// ErrCreationFailed indicates the content store rejected a new entity
	ErrCreationFailed = errors.New("creation failed")

	// ErrPartialConversion indicates a production was created but a later copy step failed
	ErrPartialConversion = errors.New("partial conversion")
)

// Machine-readable error codes.
const (
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeInvalidSource     = "invalid_source"
	CodeForbidden         = "forbidden"
	CodeCreationFailed    = "creation_failed"
	CodePartialConversion = "partial_conversion"
	CodeInternal          = "internal_error"
)

// ErrorCode maps err to its machine-readable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPartialConversion):
		return CodePartialConversion
	case errors.Is(err, ErrInvalidSource):
		return CodeInvalidSource
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrCreationFailed):
		return CodeCreationFailed
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// ItemError represents an error related to an item operation
type ItemError struct {
	ItemID uuid.UUID
	Kind   Kind
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	if e.ItemID == uuid.Nil {
		return fmt.Sprintf("%s operation %s failed: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s operation %s failed for %s: %v", e.Kind, e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// ConversionError represents a failure during page to production conversion.
// ProductionID is set when the production had already been created.
type ConversionError struct {
	PageID       uuid.UUID
	ProductionID uuid.UUID
	Step         string
	Err          error
}

func (e *ConversionError) Error() string {
	if e.ProductionID == uuid.Nil {
		return fmt.Sprintf("convert page %s: %s: %v", e.PageID, e.Step, e.Err)
	}
	return fmt.Sprintf("convert page %s to production %s: %s: %v", e.PageID, e.ProductionID, e.Step, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ValidationError describes which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
