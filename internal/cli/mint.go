package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/auction"
)

// NewMintCommand creates the mint command.
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint <asset> <owner>",
		Short: "Register an asset under an owner",
		Long: `Register an asset on the ledger under an initial owner.

An auction can only be created for an asset its seller owns, so new assets
enter the system here.

Example:
  gavel mint painting-7 alice`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMint(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runMint(opts *RootOptions, asset, owner string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	ctx := cmd.Context()

	eng, db, err := openEngine(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := eng.SeedAsset(ctx, auction.AssetID(asset), auction.AccountID(owner)); err != nil {
		return err
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{
			"asset": asset,
			"owner": owner,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Asset %s registered to %s.\n", asset, owner)
	return nil
}
