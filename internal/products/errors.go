package products

import "errors"

var (
	// ErrValidation marks drafts rejected before reaching the API.
	ErrValidation = errors.New("validation failed")
	// ErrNoBarcode indicates a product without a barcode reference.
	ErrNoBarcode = errors.New("product has no barcode")
)

// ValidationError carries the inline message for a rejected draft.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UserMessage returns the text shown to the user.
func (e *ValidationError) UserMessage() string { return e.Message }

// MessageOf returns the user-facing message carried by err, or fallback when
// err carries none.
func MessageOf(err error, fallback string) string {
	var carrier interface{ UserMessage() string }
	if errors.As(err, &carrier) {
		if msg := carrier.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
