package ir

import (
	"errors"
	"fmt"
)

// UnsupportedBindingTypeError reports a tag outside the known set.
// Unknown tags always fail; they are never passed through as raw data.
type UnsupportedBindingTypeError struct {
	Tag string
}

func (e *UnsupportedBindingTypeError) Error() string {
	return fmt.Sprintf("unsupported binding type %q", e.Tag)
}

// IsUnsupportedBindingType reports whether err wraps an
// *UnsupportedBindingTypeError.
func IsUnsupportedBindingType(err error) bool {
	var ue *UnsupportedBindingTypeError
	return errors.As(err, &ue)
}

// FieldError attaches the binding name to a decoding error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("binding %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
