package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/audit"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <auction-id>",
		Short: "Show an auction's audit trail",
		Long: `Show the audit trail for an auction in sequence order.

Each entry is content-addressed: its id is a hash of the entry's fields, so
a trail copied elsewhere can be verified entry by entry.

Example:
  gavel trace art-1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTrace(opts *RootOptions, auctionID string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	ctx := cmd.Context()

	eng, db, err := openEngine(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	// The trail exists independently of the record, but a missing record
	// means there is nothing to trace.
	if _, err := eng.GetAuction(ctx, auctionID); err != nil {
		return reportRejection(f, err)
	}

	entries, err := eng.Trace(ctx, auctionID)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return f.Success(traceData(entries))
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Audit trail for %s (%d entries):\n", auctionID, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("  %4d  %-14s  actor=%s", e.Seq, e.Op, e.Actor)
		if e.Amount != 0 {
			line += fmt.Sprintf("  amount=%d", e.Amount)
		}
		if e.Counterparty != "" {
			line += fmt.Sprintf("  counterparty=%s", e.Counterparty)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func traceData(entries []audit.Entry) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{
			"id":           e.ID,
			"seq":          e.Seq,
			"op":           string(e.Op),
			"actor":        e.Actor,
			"amount":       e.Amount,
			"counterparty": e.Counterparty,
		}
	}
	return out
}
