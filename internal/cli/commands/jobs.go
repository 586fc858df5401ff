package commands

import (
	"github.com/spf13/cobra"

	"ProductCurator/internal/cli/ui"
	"ProductCurator/internal/domain"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show jobs, catalog counts and review backlog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			status, err := api.Status(ctx)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), status)
			}
			ui.RenderStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newTriggerCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "trigger <job>",
		Short:   "run a job now and wait for it",
		Example: "  $ curationctl trigger inventory-sync",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			state, err := api.TriggerJob(ctx, args[0])
			if err != nil && state.Name == "" {
				return err
			}
			if opts.json() {
				if jerr := ui.PrintJSON(cmd.OutOrStdout(), state); jerr != nil {
					return jerr
				}
				return err
			}
			ui.RenderJobs(cmd.OutOrStdout(), []domain.JobState{state})
			if err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "%s finished: %s", state.Name, state.LastSummary)
			return nil
		},
	}
}

func newToggleCmd(opts *options, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <job>",
		Short: use + " a job's schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			state, err := api.SetJobEnabled(ctx, args[0], enabled)
			if err != nil {
				return err
			}
			if opts.json() {
				return ui.PrintJSON(cmd.OutOrStdout(), state)
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "%s %sd", state.Name, use)
			return nil
		},
	}
}
