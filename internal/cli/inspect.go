package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/capnego/internal/ir"
	"github.com/roach88/capnego/internal/registry"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database  string
	Caps      string // find pads compatible with these caps
	Direction string // pad direction for --caps
}

// ElementSummary is one row of the element listing.
type ElementSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rank        int64  `json:"rank"`
	Pads        int    `json:"pads"`
}

// CompatiblePad is a pad accepting some format of the queried caps.
type CompatiblePad struct {
	Element string `json:"element"`
	Rank    int64  `json:"rank"`
	Pad     string `json:"pad"`
	Caps    string `json:"caps"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [element]",
		Short: "Show elements stored in a registry",
		Long: `Without arguments, list the registry's elements by rank. With an
element name, show its pad templates.

--caps lists the pads, of the --direction given, that can accept at
least one format of the caps.

Examples:
  capnego inspect --db registry.db
  capnego inspect --db registry.db alsasink
  capnego inspect --db registry.db --caps "audio/x-raw, rate=(int)44100" --direction sink`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to registry database (required)")
	cmd.Flags().StringVar(&opts.Caps, "caps", "", "find pads compatible with these caps")
	cmd.Flags().StringVar(&opts.Direction, "direction", string(ir.DirectionSink), "pad direction for --caps (src|sink)")

	return cmd
}

func runInspect(opts *InspectOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Caps != "" && len(args) > 0 {
		return f.fail(ExitCommandError, ErrCodeBadFlag, "--caps cannot be combined with an element name")
	}

	reg, err := openRegistry(f, opts.Database)
	if err != nil {
		return err
	}
	defer reg.Close()

	switch {
	case opts.Caps != "":
		return inspectCompatible(cmd, f, reg, opts)
	case len(args) == 1:
		return inspectElement(cmd, f, reg, args[0])
	default:
		return listElements(cmd, f, reg)
	}
}

func listElements(cmd *cobra.Command, f *OutputFormatter, reg *registry.Registry) error {
	elements, err := reg.Elements(cmd.Context())
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	out := make([]ElementSummary, len(elements))
	for i, e := range elements {
		out[i] = ElementSummary{Name: e.Name, Description: e.Description, Rank: e.Rank, Pads: len(e.Pads)}
	}
	return f.Success(out, func(w io.Writer) {
		if len(out) == 0 {
			fmt.Fprintln(w, "No elements.")
			return
		}
		for _, e := range out {
			fmt.Fprintf(w, "%-24s rank %-4d %s\n", e.Name, e.Rank, e.Description)
		}
	})
}

func inspectElement(cmd *cobra.Command, f *OutputFormatter, reg *registry.Registry, name string) error {
	spec, err := reg.Element(cmd.Context(), name)
	if errors.Is(err, registry.ErrNotFound) {
		return f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("element %q not found", name))
	}
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	return f.Success(spec, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s\n", spec.Name, spec.Description)
		fmt.Fprintf(w, "Rank: %d\n\n", spec.Rank)
		fmt.Fprintln(w, "Pad Templates:")
		for _, p := range spec.Pads {
			fmt.Fprintf(w, "  %s (%s, %s)\n", p.Name, p.Direction, p.Presence)
			fmt.Fprintf(w, "    %s\n", p.Caps)
		}
	})
}

func inspectCompatible(cmd *cobra.Command, f *OutputFormatter, reg *registry.Registry, opts *InspectOptions) error {
	dir := ir.Direction(opts.Direction)
	if !dir.Valid() {
		return f.fail(ExitCommandError, ErrCodeBadFlag, fmt.Sprintf("invalid direction %q: must be src or sink", opts.Direction))
	}
	query, err := parseArgs(f, []string{opts.Caps})
	if err != nil {
		return err
	}

	matches, err := reg.FindCompatible(cmd.Context(), query[0], dir)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	out := make([]CompatiblePad, len(matches))
	for i, m := range matches {
		out[i] = CompatiblePad{Element: m.Element, Rank: m.Rank, Pad: m.Pad.Name, Caps: m.Pad.Caps}
	}
	return f.Success(out, func(w io.Writer) {
		if len(out) == 0 {
			fmt.Fprintf(w, "No %s pads accept %s\n", dir, query[0])
			return
		}
		for _, m := range out {
			fmt.Fprintf(w, "%s.%s\n", m.Element, m.Pad)
		}
	})
}
