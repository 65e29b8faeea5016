package decode

import (
	"errors"
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// MissingMeasurementError reports a referenced qubit absent from the
// measurement map. Binding is filled in by Assemble and CheckCoverage.
type MissingMeasurementError struct {
	Qubit   ir.Qubit
	Binding string
}

func (e *MissingMeasurementError) Error() string {
	if e.Binding != "" {
		return fmt.Sprintf("missing measurement for qubit %d (binding %q)", e.Qubit, e.Binding)
	}
	return fmt.Sprintf("missing measurement for qubit %d", e.Qubit)
}

// WidthError reports a Q_U* register holding more qubits than its declared
// width. Only raised when Options.StrictWidth is set.
type WidthError struct {
	Tag    ir.Tag
	Width  int
	Qubits int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("%s declares %d bits but references %d qubits", e.Tag, e.Width, e.Qubits)
}

// BindingError attaches the binding name to the first failure of Assemble.
type BindingError struct {
	Name string
	Err  error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding %q: %v", e.Name, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// IsMissingMeasurement reports whether err wraps a *MissingMeasurementError.
func IsMissingMeasurement(err error) bool {
	var me *MissingMeasurementError
	return errors.As(err, &me)
}

// IsWidthError reports whether err wraps a *WidthError.
func IsWidthError(err error) bool {
	var we *WidthError
	return errors.As(err, &we)
}
