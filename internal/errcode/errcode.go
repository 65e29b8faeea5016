// Package errcode maps gocavy errors to the stable codes reported by the
// CLI and recorded in conformance traces.
package errcode

import (
	"errors"

	"github.com/roach88/gocavy/internal/backend"
	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/compiler"
	"github.com/roach88/gocavy/internal/decode"
	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
)

// Error codes.
const (
	Internal    = "E001" // anything without a more specific code
	Malformed   = "E201" // object file header cannot be decoded
	Unsupported = "E202" // unknown binding tag
	Missing     = "E203" // referenced qubit not measured
	Width       = "E204" // Q_U* register wider than its tag (strict width only)
	Compiler    = "E301" // compiler exited non-zero
	Unavailable = "E302" // optional capability missing
	Sampler     = "E303" // sampler failed or returned bad output
)

// Of returns the code for err. Unknown tags report Unsupported even when
// they surface through a parse failure.
func Of(err error) string {
	var (
		ue *ir.UnsupportedBindingTypeError
		me *decode.MissingMeasurementError
		we *decode.WidthError
		mf *objfile.MalformedError
		cf *compiler.Failure
		ce *capability.UnavailableError
		se *backend.SampleError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ue):
		return Unsupported
	case errors.As(err, &me):
		return Missing
	case errors.As(err, &we):
		return Width
	case errors.As(err, &mf):
		return Malformed
	case errors.As(err, &cf):
		return Compiler
	case errors.As(err, &ce):
		return Unavailable
	case errors.As(err, &se):
		return Sampler
	default:
		return Internal
	}
}

// Detail is the structured form of an error: its code plus whichever
// binding and qubit the error identifies.
type Detail struct {
	Code    string `json:"code" yaml:"code"`
	Binding string `json:"binding,omitempty" yaml:"binding,omitempty"`
	Qubit   *int   `json:"qubit,omitempty" yaml:"qubit,omitempty"`
	Tag     string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Describe extracts a Detail from err. It returns nil for a nil error.
func Describe(err error) *Detail {
	if err == nil {
		return nil
	}
	d := &Detail{Code: Of(err)}

	var be *decode.BindingError
	if errors.As(err, &be) {
		d.Binding = be.Name
	}
	var mf *objfile.MalformedError
	if errors.As(err, &mf) && mf.Field != "" {
		d.Binding = mf.Field
	}
	var me *decode.MissingMeasurementError
	if errors.As(err, &me) {
		q := int(me.Qubit)
		d.Qubit = &q
		if me.Binding != "" {
			d.Binding = me.Binding
		}
	}
	var ue *ir.UnsupportedBindingTypeError
	if errors.As(err, &ue) {
		d.Tag = ue.Tag
	}
	var we *decode.WidthError
	if errors.As(err, &we) {
		d.Tag = string(we.Tag)
	}
	return d
}

// Fields returns the detail as a plain map, omitting empty fields. The
// shape is accepted by ir.MarshalCanonical.
func (d *Detail) Fields() map[string]any {
	out := map[string]any{"code": d.Code}
	if d.Binding != "" {
		out["binding"] = d.Binding
	}
	if d.Qubit != nil {
		out["qubit"] = *d.Qubit
	}
	if d.Tag != "" {
		out["tag"] = d.Tag
	}
	return out
}
