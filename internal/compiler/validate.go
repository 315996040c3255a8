package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/capnego/internal/caps"
	"github.com/roach88/capnego/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrUnsupportedIRType = "E200" // unsupported IR type for validation

	ErrElementDescriptionEmpty = "E201" // description is required
	ErrElementNoPads           = "E202" // at least one pad required
	ErrPadDirection            = "E203" // direction must be src or sink
	ErrPadPresence             = "E204" // presence must be always, sometimes or request
	ErrPadCaps                 = "E205" // caps text does not parse
	ErrDuplicatePad            = "E206" // duplicate pad name
	ErrElementName             = "E207" // element name is required
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Offset  int    `json:"offset,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled element against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.ElementSpec:
		return validateElementSpec(spec)
	case ir.ElementSpec:
		return validateElementSpec(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateElementSpec(spec *ir.ElementSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "element name is required",
			Code:    ErrElementName,
		})
	}

	if strings.TrimSpace(spec.Description) == "" {
		errs = append(errs, ValidationError{
			Field:   "description",
			Message: "description is required and must be non-empty",
			Code:    ErrElementDescriptionEmpty,
		})
	}

	if len(spec.Pads) == 0 {
		errs = append(errs, ValidationError{
			Field:   "pads",
			Message: "at least one pad is required",
			Code:    ErrElementNoPads,
		})
	}

	seen := make(map[string]bool)
	for i, pad := range spec.Pads {
		field := fmt.Sprintf("pads[%d]", i)

		if seen[pad.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate pad name: %q", pad.Name),
				Code:    ErrDuplicatePad,
			})
		}
		seen[pad.Name] = true

		if !pad.Direction.Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".direction",
				Message: fmt.Sprintf("invalid direction %q: must be src or sink", pad.Direction),
				Code:    ErrPadDirection,
			})
		}

		if !ir.ValidPresences[pad.Presence] {
			errs = append(errs, ValidationError{
				Field:   field + ".presence",
				Message: fmt.Sprintf("invalid presence %q: must be always, sometimes or request", pad.Presence),
				Code:    ErrPadPresence,
			})
		}

		if _, err := caps.FromString(pad.Caps); err != nil {
			ve := ValidationError{
				Field:   field + ".caps",
				Message: err.Error(),
				Code:    ErrPadCaps,
			}
			var pe *caps.ParseError
			if errors.As(err, &pe) {
				ve.Message = pe.Message
				ve.Offset = pe.Offset
			}
			errs = append(errs, ve)
		}
	}

	return errs
}
