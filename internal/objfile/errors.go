package objfile

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedError reports an object file whose header cannot be decoded.
// When the failure is an unknown tag, Err is an
// *ir.UnsupportedBindingTypeError and Field names the binding.
type MalformedError struct {
	Line   int
	Field  string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "malformed object file: line %d", e.Line)
	if e.Field != "" {
		fmt.Fprintf(&sb, ": binding %q", e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err wraps a *MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
