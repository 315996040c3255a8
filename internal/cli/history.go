package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/capnego/internal/ir"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded negotiations",
		Long: `Show the negotiations recorded in a registry, oldest first.

Example:
  capnego history --db registry.db --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to registry database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "show the most recent N negotiations (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	reg, err := openRegistry(f, opts.Database)
	if err != nil {
		return err
	}
	defer reg.Close()

	records, err := reg.Negotiations(cmd.Context(), opts.Limit)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	return f.Success(records, func(w io.Writer) {
		writeHistory(w, records)
	})
}

func writeHistory(w io.Writer, records []ir.NegotiationRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No negotiations recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSESSION\tMODE\tOUTCOME\tCACHED\tFIXED")
	for _, r := range records {
		fixed := r.Fixed
		if fixed == "" {
			fixed = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n", r.Seq, r.SessionID, r.Mode, r.Outcome, r.Cached, fixed)
	}
	tw.Flush()
}
