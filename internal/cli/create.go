package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/engine"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Seller    string
	Asset     string
	Reserve   int64
	Increment int64
	Start     string
	End       string
	Duration  time.Duration
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <auction-id>",
		Short: "Create an auction and take the asset into custody",
		Long: `Create an auction for a single asset.

The seller must own the asset; creation moves it into the auction's custody
account atomically with the record insert. The bidding window is given either
as an explicit --end time or as a --duration from the start.

Examples:
  gavel create art-1 --seller alice --asset painting-7 --reserve 100 --increment 10 --duration 24h
  gavel create art-1 --seller alice --asset painting-7 --reserve 100 --increment 10 \
    --start 2026-09-01T12:00:00Z --end 2026-09-02T12:00:00Z`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Seller, "seller", "", "seller account (required)")
	cmd.Flags().StringVar(&opts.Asset, "asset", "", "asset to sell (required)")
	cmd.Flags().Int64Var(&opts.Reserve, "reserve", 0, "reserve price in base units")
	cmd.Flags().Int64Var(&opts.Increment, "increment", 0, "minimum bid increment in base units")
	cmd.Flags().StringVar(&opts.Start, "start", "", "window start, RFC 3339 (default: now)")
	cmd.Flags().StringVar(&opts.End, "end", "", "window end, RFC 3339")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "window length from start (alternative to --end)")
	cmd.MarkFlagRequired("seller")
	cmd.MarkFlagRequired("asset")

	return cmd
}

func runCreate(opts *CreateOptions, auctionID string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	eng, db, err := openEngine(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer db.Close()

	start := eng.Now()
	if opts.Start != "" {
		start, err = time.Parse(time.RFC3339, opts.Start)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --start: %v", err))
		}
	}

	var end time.Time
	switch {
	case opts.End != "" && opts.Duration != 0:
		return NewExitError(ExitCommandError, "--end and --duration are mutually exclusive")
	case opts.End != "":
		end, err = time.Parse(time.RFC3339, opts.End)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --end: %v", err))
		}
	case opts.Duration > 0:
		end = start.Add(opts.Duration)
	default:
		return NewExitError(ExitCommandError, "either --end or --duration is required")
	}

	rec, err := eng.CreateAuction(ctx, engine.CreateParams{
		ID:           auctionID,
		Seller:       auction.AccountID(opts.Seller),
		Asset:        auction.AssetID(opts.Asset),
		ReservePrice: opts.Reserve,
		BidIncrement: opts.Increment,
		Start:        start,
		End:          end,
	})
	if err != nil {
		return reportRejection(f, err)
	}

	if opts.Format == "json" {
		return f.Success(recordData(rec, eng.Now()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created auction %s; asset %s held in custody.\n", rec.ID, rec.Asset)
	renderRecord(cmd.OutOrStdout(), rec, eng.Now())
	return nil
}
