package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
)

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund <account> <amount>",
		Short: "Credit an account on the custody ledger",
		Long: `Credit an account with funds in base units.

Operational seeding for local use; bids draw on these balances.

Example:
  gavel fund bob 500`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFund(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runFund(opts *RootOptions, account, amountArg string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	ctx := cmd.Context()

	amount, err := strconv.ParseInt(amountArg, 10, 64)
	if err != nil || amount <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q: must be a positive integer", amountArg))
	}

	eng, db, err := openEngine(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := eng.Fund(ctx, auction.AccountID(account), amount); err != nil {
		return err
	}
	balance, err := db.Balance(ctx, auction.AccountID(account))
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{
			"account": account,
			"balance": balance,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Credited %d to %s; balance is now %d.\n", amount, account, balance)
	return nil
}
