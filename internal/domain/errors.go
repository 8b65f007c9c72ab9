package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock is returned when a cart mutation would exceed available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrValidation marks input that failed validation. Match it with errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failed or timed out call to the database, ERP or payment gateway.
	ErrUpstream = errors.New("upstream failure")
	// ErrSignatureMismatch is returned when a payment callback checksum does not verify.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrUnauthorized is returned when a request lacks valid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrVariantNotFound     = fmt.Errorf("variant %w", ErrNotFound)
	ErrLineNotFound        = fmt.Errorf("cart line %w", ErrNotFound)
	ErrVariantLookupFailed = fmt.Errorf("variant lookup: %w", ErrUpstream)
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Upstream wraps err so that errors.Is(err, ErrUpstream) holds while keeping the cause.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrUpstream, err))
}
