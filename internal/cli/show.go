package cli

import (
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <auction-id>",
		Short: "Show an auction's current state",
		Long: `Show an auction record, including its derived phase.

The phase (pending, open, closed, settled) is computed from the current
clock reading against the stored window; it is never stored itself.

Example:
  gavel show art-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, auctionID string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	ctx := cmd.Context()

	eng, db, err := openEngine(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := eng.GetAuction(ctx, auctionID)
	if err != nil {
		return reportRejection(f, err)
	}

	if opts.Format == "json" {
		return f.Success(recordData(rec, eng.Now()))
	}
	renderRecord(cmd.OutOrStdout(), rec, eng.Now())
	return nil
}
