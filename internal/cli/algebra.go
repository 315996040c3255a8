package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/capnego/internal/caps"
)

// CapsOutput describes a caps result.
type CapsOutput struct {
	Caps       string `json:"caps"`
	Structures int    `json:"structures"`
	Fixed      bool   `json:"fixed"`
	Any        bool   `json:"any"`
	Empty      bool   `json:"empty"`
}

func newCapsOutput(c *caps.Caps) CapsOutput {
	return CapsOutput{
		Caps:       c.String(),
		Structures: c.Size(),
		Fixed:      c.IsFixed(),
		Any:        c.IsAny(),
		Empty:      c.IsEmpty(),
	}
}

// PredicateOutput is the answer of subset and equal.
type PredicateOutput struct {
	Result bool `json:"result"`
}

// NewAlgebraCommands creates the commands that compute directly on caps
// given as arguments.
func NewAlgebraCommands(rootOpts *RootOptions) []*cobra.Command {
	var mode string
	intersect := capsCommand(rootOpts, &cobra.Command{
		Use:   "intersect <caps> <caps>",
		Short: "Formats accepted by both caps",
		Long: `Intersect two caps. The result holds the formats both accept.

--mode zigzag (default) interleaves both preference orders;
--mode first keeps the order of the first caps.

Example:
  capnego intersect "audio/x-raw, rate=(int)[ 8000, 96000 ]" "audio/x-raw, rate=(int)44100"`,
		Args: cobra.ExactArgs(2),
	}, func(in []*caps.Caps) (*caps.Caps, error) {
		m, ok := caps.ParseIntersectMode(mode)
		if !ok {
			return nil, fmt.Errorf("invalid mode %q: must be zigzag or first", mode)
		}
		return caps.IntersectFull(in[0], in[1], m), nil
	})
	intersect.Flags().StringVar(&mode, "mode", "zigzag", "intersection order (zigzag|first)")

	var strict bool
	equal := predicateCommand(rootOpts, &cobra.Command{
		Use:   "equal <caps> <caps>",
		Short: "Whether two caps describe the same formats",
		Long: `Report whether two caps describe the same set of formats.
Exits 1 if they do not.

--strict also requires the same structures in the same order.`,
		Args: cobra.ExactArgs(2),
	}, func(in []*caps.Caps) bool {
		if strict {
			return caps.IsStrictlyEqual(in[0], in[1])
		}
		return caps.IsEqual(in[0], in[1])
	})
	equal.Flags().BoolVar(&strict, "strict", false, "compare structure by structure")

	return []*cobra.Command{
		intersect,
		capsCommand(rootOpts, &cobra.Command{
			Use:   "subtract <minuend> <subtrahend>",
			Short: "Formats of the first caps not in the second",
			Args:  cobra.ExactArgs(2),
		}, func(in []*caps.Caps) (*caps.Caps, error) {
			return caps.Subtract(in[0], in[1]), nil
		}),
		capsCommand(rootOpts, &cobra.Command{
			Use:   "union <caps> <caps>...",
			Short: "Formats accepted by any of the caps",
			Args:  cobra.MinimumNArgs(2),
		}, func(in []*caps.Caps) (*caps.Caps, error) {
			acc := in[0]
			for _, c := range in[1:] {
				acc = caps.Union(acc, c)
			}
			return acc, nil
		}),
		capsCommand(rootOpts, &cobra.Command{
			Use:   "simplify <caps>",
			Short: "Merge and drop redundant structures",
			Args:  cobra.ExactArgs(1),
		}, func(in []*caps.Caps) (*caps.Caps, error) {
			return caps.Simplify(in[0]), nil
		}),
		capsCommand(rootOpts, &cobra.Command{
			Use:   "normalize <caps>",
			Short: "Expand lists into one structure per alternative",
			Args:  cobra.ExactArgs(1),
		}, func(in []*caps.Caps) (*caps.Caps, error) {
			return caps.Normalize(in[0]), nil
		}),
		capsCommand(rootOpts, &cobra.Command{
			Use:   "fixate <caps>",
			Short: "Pick a single format",
			Long: `Fixate caps: keep the first structure and reduce every field to one
value (lowest of a range, first of a list).`,
			Args: cobra.ExactArgs(1),
		}, func(in []*caps.Caps) (*caps.Caps, error) {
			return caps.Fixate(in[0]), nil
		}),
		predicateCommand(rootOpts, &cobra.Command{
			Use:   "subset <caps> <caps>",
			Short: "Whether every format of the first caps is in the second",
			Long: `Report whether the first caps is a subset of the second.
Exits 1 if it is not.`,
			Args: cobra.ExactArgs(2),
		}, func(in []*caps.Caps) bool {
			return caps.IsSubset(in[0], in[1])
		}),
		equal,
	}
}

// capsCommand wires an operation producing caps to cmd.
func capsCommand(rootOpts *RootOptions, cmd *cobra.Command, op func([]*caps.Caps) (*caps.Caps, error)) *cobra.Command {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		f := newFormatter(rootOpts, cmd)
		in, err := parseArgs(f, args)
		if err != nil {
			return err
		}

		out, err := op(in)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeBadFlag, err.Error())
		}
		f.VerboseLog("%s: %d structure(s) in, %d out", cmd.Name(), totalSize(in), out.Size())

		return f.Success(newCapsOutput(out), func(w io.Writer) {
			fmt.Fprintln(w, out.String())
		})
	}
	return cmd
}

// predicateCommand wires a yes/no question to cmd. A negative answer exits
// with ExitFailure.
func predicateCommand(rootOpts *RootOptions, cmd *cobra.Command, op func([]*caps.Caps) bool) *cobra.Command {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		f := newFormatter(rootOpts, cmd)
		in, err := parseArgs(f, args)
		if err != nil {
			return err
		}

		result := op(in)
		if err := f.Success(PredicateOutput{Result: result}, func(w io.Writer) {
			fmt.Fprintln(w, result)
		}); err != nil {
			return err
		}
		if !result {
			return NewExitError(ExitFailure, fmt.Sprintf("%s: false", cmd.Name()))
		}
		return nil
	}
	return cmd
}

// parseArgs parses every argument as caps, reporting the first failure.
func parseArgs(f *OutputFormatter, args []string) ([]*caps.Caps, error) {
	out := make([]*caps.Caps, len(args))
	for i, arg := range args {
		c, err := caps.FromString(arg)
		if err != nil {
			details := map[string]any{"arg": i + 1}
			var pe *caps.ParseError
			if errors.As(err, &pe) {
				details["offset"] = pe.Offset
			}
			_ = f.Error(ErrCodeParseCaps, err.Error(), details)
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("argument %d", i+1), err)
		}
		out[i] = c
	}
	return out, nil
}

func totalSize(cs []*caps.Caps) int {
	n := 0
	for _, c := range cs {
		n += c.Size()
	}
	return n
}
