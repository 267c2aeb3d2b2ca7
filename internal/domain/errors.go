package domain

import "github.com/pkg/errors"

var (
	// ErrQuantityNotPositive is reported for a zero or negative bond quantity.
	ErrQuantityNotPositive = errors.New("value must be greater than 0")
	// ErrQuantityInvalid is reported for a quantity that is not a number.
	ErrQuantityInvalid = errors.New("value must be valid")
	// ErrInvalidRecipient is reported for a recipient that is not a hex address.
	ErrInvalidRecipient = errors.New("recipient must be a valid address")
	// ErrUnknownAsset is returned when no state exists for the asset.
	ErrUnknownAsset = errors.New("unknown bond asset")
)

// ValidationError is a user-facing input error. Nothing was mutated or submitted.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError wraps err as a validation failure of field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
