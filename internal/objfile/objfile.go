// Package objfile reads and writes compiled Cavy object files.
//
// An object file is QASM text whose first line is a comment carrying the
// program's bindings as JSON:
//
//	//{"x":{"Bool":true},"n":{"Q_U8":[0,1,2]}}
//	OPENQASM 2.0;
//	...
//
// Everything after the first newline is the body, kept byte for byte.
package objfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/qasm"
)

// CommentMarker prefixes the header line.
const CommentMarker = "//"

// ObjectFile is a parsed object file. It is immutable: accessors return
// copies and there are no setters.
type ObjectFile struct {
	bindings ir.Bindings
	body     string
}

// New builds an object file from bindings and a body. The bindings map is
// copied.
func New(bindings ir.Bindings, body string) *ObjectFile {
	return &ObjectFile{bindings: bindings.Clone(), body: body}
}

// Bindings returns a copy of the name → binding map.
func (o *ObjectFile) Bindings() ir.Bindings {
	return o.bindings.Clone()
}

// Binding returns one binding by name.
func (o *ObjectFile) Binding(name string) (ir.BindingValue, bool) {
	v, ok := o.bindings[name]
	return v, ok
}

// Names returns the binding names in canonical order.
func (o *ObjectFile) Names() []string {
	return o.bindings.Names()
}

// Qubits returns every qubit referenced by any binding, ascending.
func (o *ObjectFile) Qubits() []ir.Qubit {
	return o.bindings.Qubits()
}

// Body returns the QASM text after the header line.
func (o *ObjectFile) Body() string {
	return o.body
}

// ID returns the content-addressed object ID.
func (o *ObjectFile) ID() (string, error) {
	return ir.ObjectID(o.bindings, o.body)
}

// Text encodes the object file back to its on-disk form.
func (o *ObjectFile) Text() (string, error) {
	return Encode(o.bindings, o.body)
}

// Inspect summarises the QASM body.
func (o *ObjectFile) Inspect() (*qasm.Summary, error) {
	return qasm.Inspect(o.body)
}

// Validate checks that the body parses and that every qubit a binding
// refers to is declared by a qreg. All undeclared qubits are reported.
func (o *ObjectFile) Validate() error {
	summary, err := o.Inspect()
	if err != nil {
		return fmt.Errorf("validate body: %w", err)
	}

	var result *multierror.Error
	for _, name := range o.bindings.Names() {
		qubits := ir.SortedQubits(ir.QubitsReferenced(o.bindings[name]))
		for _, q := range qubits {
			if !summary.Declares(q) {
				result = multierror.Append(result, &UndeclaredQubitError{
					Binding:  name,
					Qubit:    q,
					Declared: summary.NumQubits(),
				})
			}
		}
	}
	return result.ErrorOrNil()
}

// UndeclaredQubitError reports a binding qubit outside the body's qregs.
type UndeclaredQubitError struct {
	Binding  string
	Qubit    ir.Qubit
	Declared int
}

func (e *UndeclaredQubitError) Error() string {
	return fmt.Sprintf("binding %q: qubit %d not declared (body declares %d)", e.Binding, e.Qubit, e.Declared)
}

// Parse splits raw into header and body and decodes the header.
// It never returns a partially populated object.
func Parse(raw string) (*ObjectFile, error) {
	header, body, ok := strings.Cut(raw, "\n")
	if !ok {
		return nil, &MalformedError{Line: 1, Reason: "missing body: no newline after header"}
	}
	header = strings.TrimSuffix(header, "\r")

	payload, ok := strings.CutPrefix(header, CommentMarker)
	if !ok {
		return nil, &MalformedError{Line: 1, Reason: fmt.Sprintf("header must start with %q", CommentMarker)}
	}

	bindings, err := ir.UnmarshalBindings([]byte(payload))
	if err != nil {
		merr := &MalformedError{Line: 1, Reason: "invalid bindings", Err: err}
		var fe *ir.FieldError
		if errors.As(err, &fe) {
			merr.Field = fe.Field
			merr.Err = fe.Err
		}
		return nil, merr
	}
	return &ObjectFile{bindings: bindings, body: body}, nil
}

// Encode is the inverse of Parse. The header is canonical JSON, so
// Parse(Encode(b, body)) yields b and body unchanged.
func Encode(bindings ir.Bindings, body string) (string, error) {
	if bindings == nil {
		bindings = ir.Bindings{}
	}
	header, err := ir.MarshalCanonical(bindings)
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}

	var sb strings.Builder
	sb.Grow(len(CommentMarker) + len(header) + 1 + len(body))
	sb.WriteString(CommentMarker)
	sb.Write(header)
	sb.WriteByte('\n')
	sb.WriteString(body)
	return sb.String(), nil
}

// ReadFile reads and parses the object file at path.
func ReadFile(path string) (*ObjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object file: %w", err)
	}
	obj, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

// WriteFile encodes obj and writes it to path.
func WriteFile(path string, obj *ObjectFile) error {
	text, err := obj.Text()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write object file: %w", err)
	}
	return nil
}
