package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/hashicorp/go-multierror"
)

// Error is a configuration error, with a CUE position when one is known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError converts CUE errors into *Error values, keeping the first
// position of each.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	var result *multierror.Error
	for _, e := range errs {
		ce := &Error{Field: strings.Join(e.Path(), "."), Message: e.Error()}
		if ce.Field == "" {
			ce.Field = "cue"
		}
		if positions := errors.Positions(e); len(positions) > 0 {
			ce.Pos = positions[0]
		}
		result = multierror.Append(result, ce)
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	return result
}
