package commands

import (
	"github.com/spf13/cobra"

	"ProductCurator/internal/cli/ui"
)

func newQueueCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "list items waiting for manual review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			items, err := api.ReviewQueue(ctx, limit)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), items)
			}
			ui.RenderQueue(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum items to show")
	cmd.AddCommand(newDecisionCmd(opts, "approve"), newDecisionCmd(opts, "reject"))
	return cmd
}

func newDecisionCmd(opts *options, decision string) *cobra.Command {
	var reviewer, note string
	cmd := &cobra.Command{
		Use:   decision + " <item-id>",
		Short: decision + " a queued product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			resolve := api.Approve
			if decision == "reject" {
				resolve = api.Reject
			}
			product, err := resolve(ctx, args[0], reviewer, note)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), product)
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "%s is now %s", product.Name, product.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", envOr("USER", ""), "reviewer id")
	if decision == "reject" {
		cmd.Flags().StringVar(&note, "reason", "", "rejection reason")
	} else {
		cmd.Flags().StringVar(&note, "notes", "", "review notes")
	}
	return cmd
}
