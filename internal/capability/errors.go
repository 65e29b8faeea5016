package capability

import (
	"errors"
	"fmt"
)

// UnavailableError reports a required capability that cannot be used.
type UnavailableError struct {
	Name   string
	Spec   Spec
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("this feature requires the missing capability %q: %s", e.Name, e.Reason)
	}
	msg := fmt.Sprintf("this feature requires the missing capability %q; install the %q %s", e.Name, e.Spec.command(), e.Spec.Kind)
	if e.Spec.URL != "" {
		msg += fmt.Sprintf(" [%s]", e.Spec.URL)
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err wraps an *UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
