package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
)

// BidOptions holds flags for the bid command.
type BidOptions struct {
	*RootOptions
	Bidder string
	Amount int64
	Source string
}

// NewBidCommand creates the bid command.
func NewBidCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BidOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bid <auction-id>",
		Short: "Place a bid on an open auction",
		Long: `Place a bid on an open auction.

The bid must clear the current highest bid (or the reserve price, for the
first bid) by at least the auction's increment. Accepted bids escrow the
amount from the funds source; the previously highest bidder is refunded in
the same atomic unit.

Examples:
  gavel bid art-1 --bidder bob --amount 110
  gavel bid art-1 --bidder bob --amount 110 --source bob-treasury`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBid(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Bidder, "bidder", "", "bidding account (required)")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "bid amount in base units (required)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "funds source account (default: the bidder)")
	cmd.MarkFlagRequired("bidder")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func runBid(opts *BidOptions, auctionID string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	eng, db, err := openEngine(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := eng.PlaceBid(ctx, auctionID,
		auction.AccountID(opts.Bidder), opts.Amount, auction.AccountID(opts.Source))
	if err != nil {
		return reportRejection(f, err)
	}

	if opts.Format == "json" {
		return f.Success(recordData(rec, eng.Now()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Bid accepted: %d by %s on %s (escrowed %d).\n",
		opts.Amount, opts.Bidder, auctionID, rec.EscrowedAmount)
	return nil
}
