package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/engine"
	"github.com/roach88/gavel/internal/store"
)

// newFormatter builds the command's output formatter from the global flags.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

// openEngine opens the database named by --db and starts an engine on the
// system clock. The caller owns the returned store and must close it.
func openEngine(ctx context.Context, opts *RootOptions) (*engine.Engine, *store.Store, error) {
	db, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("opening database %s", opts.DBPath), err)
	}
	eng, err := engine.New(ctx, db, engine.SystemClock{})
	if err != nil {
		db.Close()
		return nil, nil, WrapExitError(ExitCommandError, "starting engine", err)
	}
	return eng, db, nil
}

// reportRejection renders an auction error through the formatter and returns
// a silent ExitError; other errors pass through untouched for main to print.
func reportRejection(f *OutputFormatter, err error) error {
	var ae *auction.Error
	if !errors.As(err, &ae) {
		return err
	}
	if ferr := f.Error(string(ae.Code), ae.Message, ae.Details); ferr != nil {
		return ferr
	}
	return &ExitError{Code: ExitFailure}
}

// recordData is the record's wire form for JSON output. Phase is derived
// from the clock reading at render time.
func recordData(rec *auction.Record, now time.Time) map[string]any {
	bidder := ""
	if rec.HighestBidder.Valid {
		bidder = string(rec.HighestBidder.Account)
	}
	return map[string]any{
		"id":              rec.ID,
		"seller":          string(rec.Seller),
		"asset":           string(rec.Asset),
		"reserve_price":   rec.ReservePrice,
		"bid_increment":   rec.BidIncrement,
		"start_time":      rec.StartTime.UTC().Format(time.RFC3339),
		"end_time":        rec.EndTime.UTC().Format(time.RFC3339),
		"phase":           rec.PhaseAt(now).String(),
		"highest_bid":     rec.HighestBid,
		"highest_bidder":  bidder,
		"escrowed_amount": rec.EscrowedAmount,
		"settled":         rec.Settled,
		"settled_by":      string(rec.SettledBy),
	}
}

// renderRecord prints the record for human consumption.
func renderRecord(w io.Writer, rec *auction.Record, now time.Time) {
	fmt.Fprintf(w, "Auction %s (%s)\n", rec.ID, rec.PhaseAt(now))
	fmt.Fprintf(w, "  Seller:     %s\n", rec.Seller)
	fmt.Fprintf(w, "  Asset:      %s\n", rec.Asset)
	fmt.Fprintf(w, "  Reserve:    %d (increment %d)\n", rec.ReservePrice, rec.BidIncrement)
	fmt.Fprintf(w, "  Window:     %s .. %s\n",
		rec.StartTime.UTC().Format(time.RFC3339), rec.EndTime.UTC().Format(time.RFC3339))
	if rec.HighestBidder.Valid {
		fmt.Fprintf(w, "  Highest:    %d by %s (escrowed %d)\n",
			rec.HighestBid, rec.HighestBidder.Account, rec.EscrowedAmount)
	} else {
		fmt.Fprintf(w, "  Highest:    none (floor %d)\n", rec.HighestBid)
	}
	if rec.Settled {
		fmt.Fprintf(w, "  Settled by: %s\n", rec.SettledBy)
	}
}
