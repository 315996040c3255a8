package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/capnego/internal/ir"
)

// CompileElements compiles every element declared under the top-level
// "element" field of v, in declaration order.
//
// Elements that fail to compile are skipped and their errors returned
// alongside the ones that succeeded, so callers can report every problem
// in one pass. A value without an "element" field yields no specs and no
// errors.
func CompileElements(v cue.Value) ([]*ir.ElementSpec, []error) {
	root := v.LookupPath(cue.ParsePath("element"))
	if !root.Exists() {
		return nil, nil
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		specs []*ir.ElementSpec
		errs  []error
	)
	for iter.Next() {
		spec, err := CompileElement(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs
}
