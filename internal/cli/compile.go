package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/capnego/internal/ir"
	"github.com/roach88/capnego/internal/registry"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Database string // registry to store elements in
	Output   string // output file path
}

// CompiledElement summarizes one compiled element.
type CompiledElement struct {
	Name    string `json:"name"`
	Rank    int64  `json:"rank"`
	Pads    int    `json:"pads"`
	Hash    string `json:"template_hash"`
	Changed bool   `json:"changed,omitempty"` // stored because new or modified
}

// CompilationResult holds the compiled elements.
type CompilationResult struct {
	Elements []CompiledElement `json:"elements"`
	Stored   bool              `json:"stored"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile element specs into the registry",
		Long: `Compile CUE element specs, validate them, and store them in a registry
database. Elements whose template is unchanged are left untouched.

Example:
  capnego compile ./elements --db ./registry.db
  capnego compile ./elements -o elements.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to registry database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write compiled elements as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	loaded, problems, err := checkSpecs(specsDir, f)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		writeProblems(f, "✗ Compilation failed", ValidationResult{Elements: len(loaded.Elements), Errors: problems})
		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(problems)))
	}

	result := CompilationResult{Elements: make([]CompiledElement, 0, len(loaded.Elements))}
	for _, spec := range loaded.Elements {
		hash, err := ir.TemplateHash(spec)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeGeneric, err.Error())
		}
		result.Elements = append(result.Elements, CompiledElement{
			Name: spec.Name,
			Rank: spec.Rank,
			Pads: len(spec.Pads),
			Hash: hash,
		})
	}

	if opts.Database != "" {
		if err := storeElements(cmd.Context(), opts.Database, loaded.Elements, result.Elements, f); err != nil {
			return err
		}
		result.Stored = true
	}

	if opts.Output != "" {
		if err := writeElementsFile(loaded.Elements, opts.Output); err != nil {
			return f.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Compiled %d element(s)\n\n", len(result.Elements))
		for _, e := range result.Elements {
			status := ""
			if e.Changed {
				status = " (stored)"
			}
			fmt.Fprintf(w, "  %s: %d pad(s), rank %d%s\n", e.Name, e.Pads, e.Rank, status)
		}
		if opts.Output != "" {
			fmt.Fprintf(w, "\nWrote elements to %s\n", opts.Output)
		}
	})
}

// storeElements writes specs into the registry at path and records which
// ones changed in summary.
func storeElements(ctx context.Context, path string, specs []*ir.ElementSpec, summary []CompiledElement, f *OutputFormatter) error {
	reg, err := registry.Open(path)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open registry: %v", err))
	}
	defer reg.Close()

	for i, spec := range specs {
		changed, err := reg.PutElement(ctx, spec)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("storing %s: %v", spec.Name, err))
		}
		summary[i].Changed = changed
		f.VerboseLog("Stored element %s (changed=%t)", spec.Name, changed)
	}
	return nil
}

// writeElementsFile writes the compiled elements as indented JSON.
func writeElementsFile(specs []*ir.ElementSpec, filename string) error {
	data, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling elements: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}
