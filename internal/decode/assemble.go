package decode

import (
	"errors"

	"github.com/roach88/gocavy/internal/ir"
)

// Assemble decodes every binding with default options.
func Assemble(b ir.Bindings, m ir.MeasurementMap) (ir.ResultSet, error) {
	return defaultDecoder.Assemble(b, m)
}

// Assemble decodes every binding of b against m and returns the result set.
//
// Bindings are visited in b.Names() order. The first failure aborts the
// whole assembly and is returned as a *BindingError naming the binding;
// a nil result set accompanies every error.
func (d *Decoder) Assemble(b ir.Bindings, m ir.MeasurementMap) (ir.ResultSet, error) {
	result := make(ir.ResultSet, len(b))
	for _, name := range b.Names() {
		v, err := d.Deserialize(b[name], m)
		if err != nil {
			return nil, bindingError(name, err)
		}
		result[name] = v
	}
	return result, nil
}

// CheckCoverage verifies that m measures every qubit referenced by b.
// It reports the lowest missing qubit of the first binding (in Names order)
// that is not covered.
func CheckCoverage(b ir.Bindings, m ir.MeasurementMap) error {
	for _, name := range b.Names() {
		for _, q := range ir.SortedQubits(ir.QubitsReferenced(b[name])) {
			if _, ok := m[q]; !ok {
				return bindingError(name, &MissingMeasurementError{Qubit: q})
			}
		}
	}
	return nil
}

func bindingError(name string, err error) error {
	var me *MissingMeasurementError
	if errors.As(err, &me) && me.Binding == "" {
		me.Binding = name
	}
	return &BindingError{Name: name, Err: err}
}
