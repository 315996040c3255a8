package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/capnego/internal/caps"
	"github.com/roach88/capnego/internal/ir"
)

// CompileElement parses a CUE value into an ElementSpec.
//
// The CUE value should be the element struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`element: audioconvert: { ... }`)
//	spec, err := CompileElement(v.LookupPath(cue.ParsePath("element.audioconvert")))
//
// Pads keep their declaration order. Caps that parse are stored in
// canonical text form; caps that do not are kept verbatim so that Validate
// can report them.
func CompileElement(v cue.Value) (*ir.ElementSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ElementSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].Unquoted()
	}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if !descVal.Exists() {
		return nil, &CompileError{
			Field:   "description",
			Message: "description is required",
			Pos:     v.Pos(),
		}
	}
	desc, err := descVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Description = desc

	if rankVal := v.LookupPath(cue.ParsePath("rank")); rankVal.Exists() {
		rank, err := rankVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Rank = rank
	}

	spec.Pads, err = parsePads(v)
	if err != nil {
		return nil, err
	}
	if len(spec.Pads) == 0 {
		return nil, &CompileError{
			Field:   "pad",
			Message: "at least one pad is required",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// parsePads extracts pad templates in declaration order.
func parsePads(v cue.Value) ([]ir.PadTemplate, error) {
	padsVal := v.LookupPath(cue.ParsePath("pad"))
	if !padsVal.Exists() {
		return nil, nil
	}

	iter, err := padsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var pads []ir.PadTemplate
	for iter.Next() {
		pad, err := parsePad(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		pads = append(pads, pad)
	}
	return pads, nil
}

func parsePad(name string, v cue.Value) (ir.PadTemplate, error) {
	pad := ir.PadTemplate{Name: name, Presence: ir.PresenceAlways}

	dirVal := v.LookupPath(cue.ParsePath("direction"))
	if !dirVal.Exists() {
		return pad, &CompileError{
			Field:   "pad." + name + ".direction",
			Message: "direction is required",
			Pos:     v.Pos(),
		}
	}
	dir, err := dirVal.String()
	if err != nil {
		return pad, formatCUEError(err)
	}
	pad.Direction = ir.Direction(dir)

	if presVal := v.LookupPath(cue.ParsePath("presence")); presVal.Exists() {
		pres, err := presVal.String()
		if err != nil {
			return pad, formatCUEError(err)
		}
		pad.Presence = ir.Presence(pres)
	}

	capsVal := v.LookupPath(cue.ParsePath("caps"))
	if !capsVal.Exists() {
		return pad, &CompileError{
			Field:   "pad." + name + ".caps",
			Message: "caps is required",
			Pos:     v.Pos(),
		}
	}
	text, err := parseCapsText(capsVal)
	if err != nil {
		return pad, err
	}
	pad.Caps = canonicalCaps(text)

	return pad, nil
}

// parseCapsText accepts either a single caps string or a list of structure
// strings, which are joined in order.
func parseCapsText(v cue.Value) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}

	list, err := v.List()
	if err != nil {
		return "", &CompileError{
			Field:   "caps",
			Message: "must be a string or a list of strings",
			Pos:     v.Pos(),
		}
	}
	var parts []string
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return "", formatCUEError(err)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; "), nil
}

func canonicalCaps(text string) string {
	c, err := caps.FromString(text)
	if err != nil {
		return text
	}
	return c.String()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error together with its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
