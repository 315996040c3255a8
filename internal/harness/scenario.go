package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/capnego/internal/caps"
)

// Scenario is a sequence of caps operations with expected results.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Elements lists CUE element spec files loaded into a fresh registry
	// for link steps. Relative paths are resolved against the scenario file.
	Elements []string `yaml:"elements,omitempty"`

	// Mode is the intersection mode for negotiate and link steps:
	// "zigzag" (default) or "first".
	Mode string `yaml:"mode,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step is one operation and its expectation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// A and B are operands in caps text form. Unary ops use only A.
	// For negotiate, A is upstream and B is downstream.
	A string `yaml:"a,omitempty"`
	B string `yaml:"b,omitempty"`

	// Filter optionally restricts negotiate and link steps.
	Filter string `yaml:"filter,omitempty"`

	// Src and Sink name registered elements for link steps.
	Src  string `yaml:"src,omitempty"`
	Sink string `yaml:"sink,omitempty"`

	// Expect compares the result structurally (caps.IsEqual).
	Expect *string `yaml:"expect,omitempty"`

	// ExpectString compares the result's text form exactly.
	ExpectString *string `yaml:"expect_string,omitempty"`

	// ExpectBool is the expectation for predicate ops.
	ExpectBool *bool `yaml:"expect_bool,omitempty"`

	// ExpectError is the expected failure of a negotiate or link step:
	// "no_common_format" or "not_fixable".
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Operations.
const (
	OpIntersect      = "intersect"
	OpIntersectFirst = "intersect_first"
	OpCanIntersect   = "can_intersect"
	OpSubtract       = "subtract"
	OpUnion          = "union"
	OpSimplify       = "simplify"
	OpNormalize      = "normalize"
	OpFixate         = "fixate"
	OpIsSubset       = "is_subset"
	OpIsEqual        = "is_equal"
	OpIsFixed        = "is_fixed"
	OpNegotiate      = "negotiate"
	OpLink           = "link"
)

type opKind int

const (
	capsOp opKind = iota
	boolOp
	negotiationOp
)

type opInfo struct {
	kind  opKind
	unary bool
}

var ops = map[string]opInfo{
	OpIntersect:      {kind: capsOp},
	OpIntersectFirst: {kind: capsOp},
	OpCanIntersect:   {kind: boolOp},
	OpSubtract:       {kind: capsOp},
	OpUnion:          {kind: capsOp},
	OpSimplify:       {kind: capsOp, unary: true},
	OpNormalize:      {kind: capsOp, unary: true},
	OpFixate:         {kind: capsOp, unary: true},
	OpIsSubset:       {kind: boolOp},
	OpIsEqual:        {kind: boolOp},
	OpIsFixed:        {kind: boolOp, unary: true},
	OpNegotiate:      {kind: negotiationOp},
	OpLink:           {kind: negotiationOp},
}

// Negotiation failures named by expect_error.
const (
	FailNoCommonFormat = "no_common_format"
	FailNotFixable     = "not_fixable"
)

// LoadScenario reads and parses a scenario YAML file. Element paths are
// resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative element paths
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Elements {
		if !filepath.IsAbs(p) && baseDir != "" {
			scenario.Elements[i] = filepath.Join(baseDir, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// step is well formed.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if _, ok := caps.ParseIntersectMode(s.Mode); !ok {
		return fmt.Errorf("unknown mode %q (want zigzag or first)", s.Mode)
	}

	for _, p := range s.Elements {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("element file not found: %s", p)
		}
	}

	for i := range s.Steps {
		if err := validateStep(s, &s.Steps[i]); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(s *Scenario, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	info, ok := ops[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Op == OpLink {
		if step.Src == "" || step.Sink == "" {
			return fmt.Errorf("src and sink are required for link")
		}
		if len(s.Elements) == 0 {
			return fmt.Errorf("link needs elements")
		}
		if step.A != "" || step.B != "" {
			return fmt.Errorf("link takes src and sink, not a and b")
		}
	} else {
		if step.A == "" {
			return fmt.Errorf("a is required for %s", step.Op)
		}
		if info.unary && step.B != "" {
			return fmt.Errorf("%s takes a single operand", step.Op)
		}
		if !info.unary && step.B == "" {
			return fmt.Errorf("b is required for %s", step.Op)
		}
		if step.Src != "" || step.Sink != "" {
			return fmt.Errorf("src and sink are only valid for link")
		}
	}

	if info.kind != negotiationOp {
		if step.Filter != "" {
			return fmt.Errorf("filter is only valid for negotiate and link")
		}
		if step.ExpectError != "" {
			return fmt.Errorf("expect_error is only valid for negotiate and link")
		}
	}

	if step.Expect != nil && step.ExpectString != nil {
		return fmt.Errorf("expect and expect_string are mutually exclusive")
	}
	if info.kind == boolOp && (step.Expect != nil || step.ExpectString != nil) {
		return fmt.Errorf("%s returns a bool; use expect_bool", step.Op)
	}
	if info.kind != boolOp && step.ExpectBool != nil {
		return fmt.Errorf("expect_bool is only valid for predicate ops")
	}

	switch step.ExpectError {
	case "", FailNoCommonFormat, FailNotFixable:
	default:
		return fmt.Errorf("unknown expect_error %q", step.ExpectError)
	}
	if step.ExpectError != "" && (step.Expect != nil || step.ExpectString != nil) {
		return fmt.Errorf("expect_error cannot be combined with a result expectation")
	}
	return nil
}
