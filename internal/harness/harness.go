package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/capnego/internal/caps"
	"github.com/roach88/capnego/internal/compiler"
	"github.com/roach88/capnego/internal/negotiate"
	"github.com/roach88/capnego/internal/registry"
	"github.com/roach88/capnego/internal/testutil"
)

// Harness executes scenario steps.
type Harness struct {
	registry   *registry.Registry
	negotiator *negotiate.Negotiator
	logger     *slog.Logger
}

// Run executes a scenario and returns its result.
//
// Each scenario runs against a fresh in-memory registry loaded with the
// scenario's elements, and negotiates with a fresh in-memory cache and
// session IDs numbered from "<name>-0001", so the same scenario always
// produces the same trace.
//
// A returned error means the scenario could not run (unreadable elements,
// unparsable operands). Unmet expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := registry.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory registry: %w", err)
	}
	defer reg.Close()

	ctx := context.Background()
	if err := loadElements(ctx, reg, scenario.Elements); err != nil {
		return nil, err
	}

	mode, _ := caps.ParseIntersectMode(scenario.Mode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		registry: reg,
		negotiator: negotiate.New(
			negotiate.WithMode(mode),
			negotiate.WithCache(negotiate.NewMemoryCache()),
			negotiate.WithHistory(reg),
			negotiate.WithSessionGenerator(testutil.NewSequentialGenerator(scenario.Name)),
			negotiate.WithLogger(logger),
		),
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, got, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		ev.Seq = int64(i + 1)
		result.Trace = append(result.Trace, ev)

		if msg := checkExpectation(step, ev, got); msg != "" {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Op, msg))
		}
		h.logger.Info("step completed", "step", i, "op", step.Op, "result", ev.Result)
	}
	return result, nil
}

// loadElements compiles CUE element files into reg.
func loadElements(ctx context.Context, reg *registry.Registry, paths []string) error {
	cctx := cuecontext.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read element file: %w", err)
		}
		v := cctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		specs, errs := compiler.CompileElements(v)
		if len(errs) > 0 {
			return fmt.Errorf("%s: %w", path, errors.Join(errs...))
		}
		for _, spec := range specs {
			if verrs := compiler.Validate(spec); len(verrs) > 0 {
				return fmt.Errorf("%s: element %s: %v", path, spec.Name, verrs[0])
			}
			if _, err := reg.PutElement(ctx, spec); err != nil {
				return err
			}
		}
	}
	return nil
}

// executeStep runs one step. The returned caps is the caps result, nil for
// predicates and failed negotiations.
func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, *caps.Caps, error) {
	ev := TraceEvent{Op: step.Op, Filter: step.Filter, Src: step.Src, Sink: step.Sink}

	var a, b, filter *caps.Caps
	var err error
	if step.A != "" {
		if a, err = caps.FromString(step.A); err != nil {
			return ev, nil, fmt.Errorf("operand a: %w", err)
		}
		ev.A = a.String()
	}
	if step.B != "" {
		if b, err = caps.FromString(step.B); err != nil {
			return ev, nil, fmt.Errorf("operand b: %w", err)
		}
		ev.B = b.String()
	}
	if step.Filter != "" {
		if filter, err = caps.FromString(step.Filter); err != nil {
			return ev, nil, fmt.Errorf("filter: %w", err)
		}
		ev.Filter = filter.String()
	}

	var got *caps.Caps
	predicate := func(v bool) {
		ev.Bool = &v
	}

	switch step.Op {
	case OpIntersect:
		got = caps.Intersect(a, b)
	case OpIntersectFirst:
		got = caps.IntersectFull(a, b, caps.First)
	case OpCanIntersect:
		predicate(caps.CanIntersect(a, b))
	case OpSubtract:
		got = caps.Subtract(a, b)
	case OpUnion:
		got = caps.Union(a, b)
	case OpSimplify:
		got = caps.Simplify(a)
	case OpNormalize:
		got = caps.Normalize(a)
	case OpFixate:
		got = caps.Fixate(a)
	case OpIsSubset:
		predicate(caps.IsSubset(a, b))
	case OpIsEqual:
		predicate(caps.IsEqual(a, b))
	case OpIsFixed:
		predicate(a.IsFixed())
	case OpNegotiate, OpLink:
		var res *negotiate.Result
		if step.Op == OpNegotiate {
			res, err = h.negotiator.Negotiate(ctx, a, b, filter)
		} else {
			res, err = h.negotiator.Link(ctx, h.registry, step.Src, step.Sink, filter)
		}
		switch {
		case errors.Is(err, negotiate.ErrNoCommonFormat):
			ev.Error = FailNoCommonFormat
			ev.Session = sessionOf(err)
		case errors.Is(err, negotiate.ErrNotFixable):
			ev.Error = FailNotFixable
			ev.Session = sessionOf(err)
		case err != nil:
			return ev, nil, err
		default:
			got = res.Fixed
			ev.Session = res.SessionID
			ev.Cached = &res.Cached
		}
	default:
		return ev, nil, fmt.Errorf("unknown op %q", step.Op)
	}

	if got != nil {
		ev.Result = got.String()
	}
	return ev, got, nil
}

func sessionOf(err error) string {
	var nerr *negotiate.NegotiationError
	if errors.As(err, &nerr) {
		return nerr.SessionID
	}
	return ""
}

// checkExpectation returns a description of the mismatch, or "" if the
// step met its expectation.
func checkExpectation(step Step, ev TraceEvent, got *caps.Caps) string {
	if ev.Error != "" {
		if step.ExpectError == ev.Error {
			return ""
		}
		return fmt.Sprintf("negotiation failed with %s", ev.Error)
	}
	if step.ExpectError != "" {
		return fmt.Sprintf("expected failure %s, got %s", step.ExpectError, ev.Result)
	}

	switch {
	case (step.Expect != nil || step.ExpectString != nil) && got == nil:
		return "operation has no caps result"
	case step.ExpectBool != nil && ev.Bool == nil:
		return "operation is not a predicate"
	case step.Expect != nil:
		want, err := caps.FromString(*step.Expect)
		if err != nil {
			return fmt.Sprintf("unparsable expectation: %v", err)
		}
		if !caps.IsEqual(got, want) {
			return mismatch(want.String(), ev.Result)
		}
	case step.ExpectString != nil:
		if ev.Result != *step.ExpectString {
			return mismatch(*step.ExpectString, ev.Result)
		}
	case step.ExpectBool != nil:
		if *ev.Bool != *step.ExpectBool {
			return fmt.Sprintf("expected %t, got %t", *step.ExpectBool, *ev.Bool)
		}
	}
	return ""
}

func mismatch(want, got string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "result mismatch\n")
	fmt.Fprintf(&b, "  Expected: %s\n", want)
	fmt.Fprintf(&b, "  Actual:   %s", got)
	return b.String()
}
