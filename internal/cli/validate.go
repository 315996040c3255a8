package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/capnego/internal/compiler"
)

// SpecProblem is one compile or validation error in an element spec.
type SpecProblem struct {
	Element string `json:"element,omitempty"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Offset  int    `json:"offset,omitempty"` // byte offset in caps text (E205)
}

func (p SpecProblem) String() string {
	where := p.Field
	if p.Element != "" {
		where = p.Element + "." + p.Field
	}
	if p.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s: %s", p.Line, p.Code, where, p.Message)
	}
	return fmt.Sprintf("%s: %s: %s", p.Code, where, p.Message)
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Elements int           `json:"elements"`
	Errors   []SpecProblem `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate element specs without storing them",
		Long: `Validate CUE element specs: every element needs a description and at
least one pad, and every pad a valid direction, presence and caps.

Exits 1 if any spec is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	loaded, problems, err := checkSpecs(specsDir, f)
	if err != nil {
		return err
	}

	if len(problems) > 0 {
		writeProblems(f, "✗ Validation failed", ValidationResult{Elements: len(loaded.Elements), Errors: problems})
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
	}

	result := ValidationResult{Valid: true, Elements: len(loaded.Elements)}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ All specs valid (%d element(s))\n", result.Elements)
	})
}

// checkSpecs loads specsDir and validates every compiled element. A non-nil
// error means the directory could not be loaded at all; it has already
// been reported through f.
func checkSpecs(specsDir string, f *OutputFormatter) (*LoadResult, []SpecProblem, error) {
	loaded, loadErrs := LoadSpecs(specsDir, LoadModeCollectAll)
	if loaded == nil {
		var loadErr *LoadError
		if errors.As(loadErrs[0], &loadErr) {
			return nil, nil, f.fail(ExitCommandError, loadErr.Code, loadErr.Message)
		}
		return nil, nil, f.fail(ExitCommandError, ErrCodeGeneric, loadErrs[0].Error())
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)

	var problems []SpecProblem
	for _, err := range loadErrs {
		p := SpecProblem{Field: "spec", Code: ErrCodeGeneric, Message: err.Error()}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			p.Code = loadErr.Code
			p.Message = loadErr.Message
			if loadErr.Pos.IsValid() {
				p.Line = loadErr.Pos.Line()
			}
		}
		problems = append(problems, p)
	}

	for _, spec := range loaded.Elements {
		f.VerboseLog("Validating element: %s", spec.Name)
		for _, v := range compiler.Validate(spec) {
			problems = append(problems, SpecProblem{
				Element: spec.Name,
				Field:   v.Field,
				Code:    v.Code,
				Message: v.Message,
				Offset:  v.Offset,
			})
		}
	}
	return loaded, problems, nil
}

// writeProblems reports spec problems in the configured format.
func writeProblems(f *OutputFormatter, headline string, result ValidationResult) {
	if f.JSON() {
		_ = f.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		})
		return
	}

	fmt.Fprintln(f.Writer, headline)
	fmt.Fprintln(f.Writer)
	for _, p := range result.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", p)
	}
}
