package commands

import (
	"github.com/spf13/cobra"

	"ProductCurator/internal/cli/ui"
)

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "show the latest curation report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			report, err := api.LatestReport(ctx)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), report)
			}
			ui.RenderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newProductsCmd(opts *options) *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "list curated products by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			products, err := api.Products(ctx, status, limit)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), products)
			}
			ui.RenderProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "auto_approved", "auto_approved, manual_override, pending_review or rejected")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum products to show")
	return cmd
}

func newRejectionsCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rejections",
		Short: "show the most recent rejections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			rejections, err := api.Rejections(ctx, limit)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), rejections)
			}
			ui.RenderRejections(cmd.OutOrStdout(), rejections)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum entries to show")
	return cmd
}
