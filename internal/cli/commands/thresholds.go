package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ProductCurator/internal/cli/ui"
	"ProductCurator/internal/domain"
)

func newThresholdsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "list routing thresholds in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			thresholds, err := api.Thresholds(ctx)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), thresholds)
			}
			ui.RenderThresholds(cmd.OutOrStdout(), thresholds)
			return nil
		},
	}
	cmd.AddCommand(newThresholdSetCmd(opts))
	return cmd
}

type thresholdFlags struct {
	name              string
	active            bool
	minScore          float64
	maxScore          float64
	minPrice          float64
	maxPrice          float64
	minRating         float64
	maxProcessingDays int
}

func newThresholdSetCmd(opts *options) *cobra.Command {
	var f thresholdFlags
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "change fields of one threshold",
		Example: `  $ curationctl thresholds set default-auto-approve --min-score 75
  $ curationctl thresholds set default-review --active=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			thresholds, err := api.Thresholds(ctx)
			if err != nil {
				return err
			}
			var current *domain.QualityThreshold
			for i := range thresholds {
				if thresholds[i].ID == args[0] {
					current = &thresholds[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("threshold %s not found", args[0])
			}

			changed := applyThresholdFlags(cmd, f, current)
			if changed == 0 {
				return fmt.Errorf("nothing to change; pass at least one field flag")
			}

			updated, err := api.UpdateThreshold(ctx, *current)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), updated)
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "%s updated to version %d", updated.ID, updated.Version)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "display name")
	flags.BoolVar(&f.active, "active", true, "whether the threshold is evaluated")
	flags.Float64Var(&f.minScore, "min-score", 0, "minimum overall score")
	flags.Float64Var(&f.maxScore, "max-score", 0, "maximum overall score (0 clears)")
	flags.Float64Var(&f.minPrice, "min-price", 0, "minimum supplier price")
	flags.Float64Var(&f.maxPrice, "max-price", 0, "maximum supplier price (0 clears)")
	flags.Float64Var(&f.minRating, "min-rating", 0, "minimum product rating")
	flags.IntVar(&f.maxProcessingDays, "max-processing-days", 0, "maximum supplier processing days (0 clears)")
	return cmd
}

// applyThresholdFlags copies explicitly set flags onto th and returns how many changed.
func applyThresholdFlags(cmd *cobra.Command, f thresholdFlags, th *domain.QualityThreshold) int {
	n := 0
	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
			n++
		}
	}
	set("name", func() { th.Name = f.name })
	set("active", func() { th.Active = f.active })
	set("min-score", func() { th.Conditions.MinScore = f.minScore })
	set("max-score", func() { th.Conditions.MaxScore = f.maxScore })
	set("min-price", func() { th.Conditions.MinPrice = f.minPrice })
	set("max-price", func() { th.Conditions.MaxPrice = f.maxPrice })
	set("min-rating", func() { th.Conditions.MinRating = f.minRating })
	set("max-processing-days", func() { th.Conditions.MaxProcessingDays = f.maxProcessingDays })
	return n
}
