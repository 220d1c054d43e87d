package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the pending re-index",
		Long: `Drop the pending search settings and the secondary index being built.
The current settings stay active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.backend()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pending, err := b.store.Secondary(ctx)
			if err != nil {
				return fmt.Errorf("failed to load pending search settings: %w", err)
			}
			if pending == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No re-index in progress.")
				return err
			}
			if err := b.service.CancelReindex(ctx, nil); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled re-indexing.")
			return err
		},
	}
}
