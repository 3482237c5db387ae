package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
)

// FinalizeOptions holds flags for the finalize command.
type FinalizeOptions struct {
	*RootOptions
	Caller string
}

// NewFinalizeCommand creates the finalize command.
func NewFinalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FinalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "finalize <auction-id>",
		Short: "Settle a closed auction",
		Long: `Settle an auction whose bidding window has closed.

Settlement pays the escrowed winning bid to the seller and transfers the
asset to the winner, or returns the asset to the seller when no qualifying
bid was placed. Anyone may finalize; the caller identity is recorded in the
audit trail. A second finalize fails with ALREADY_SETTLED and moves nothing.

Example:
  gavel finalize art-1 --caller alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFinalize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "caller", "", "account triggering settlement (required)")
	cmd.MarkFlagRequired("caller")

	return cmd
}

func runFinalize(opts *FinalizeOptions, auctionID string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	eng, db, err := openEngine(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := eng.Finalize(ctx, auctionID, auction.AccountID(opts.Caller))
	if err != nil {
		return reportRejection(f, err)
	}

	if opts.Format == "json" {
		return f.Success(recordData(rec, eng.Now()))
	}
	w := cmd.OutOrStdout()
	if rec.HighestBidder.Valid {
		fmt.Fprintf(w, "Auction %s settled: %s wins %s for %d; proceeds paid to %s.\n",
			rec.ID, rec.HighestBidder.Account, rec.Asset, rec.HighestBid, rec.Seller)
	} else {
		fmt.Fprintf(w, "Auction %s settled with no bids: %s returned to %s.\n",
			rec.ID, rec.Asset, rec.Seller)
	}
	return nil
}
