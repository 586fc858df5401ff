// Package commands implements the curationctl command tree.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ProductCurator/internal/cli/client"
)

const (
	version      = "0.1.0"
	serverEnv    = "CURATIONCTL_SERVER"
	secretEnv    = "CURATIONCTL_SECRET"
	defaultLimit = 20
)

type options struct {
	server  string
	secret  string
	output  string
	timeout time.Duration
}

func (o *options) client() (*client.APIClient, error) {
	return client.New(o.server, o.secret)
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func (o *options) json() bool {
	return o.output == "json"
}

// NewRootCommand builds the curationctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:     "curationctl",
		Short:   "Operate a ProductCurator instance",
		Version: version,
		Long: `curationctl talks to the ProductCurator admin API. It shows job and catalog
status, triggers jobs, edits routing thresholds and works the review queue.`,
		Example: `  # Show jobs and catalog counts
  $ curationctl status -s http://localhost:8080

  # Run the daily curation now
  $ curationctl trigger daily-product-curation

  # Approve a queued item
  $ curationctl queue approve 4f1c... --reviewer ana`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.output != "table" && opts.output != "json" {
				return fmt.Errorf("--output must be table or json")
			}
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.server, "server", "s", envOr(serverEnv, "http://localhost:8080"), "admin API address (env "+serverEnv+")")
	flags.StringVar(&opts.secret, "secret", os.Getenv(secretEnv), "admin secret (env "+secretEnv+")")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "request timeout")

	root.AddCommand(
		newStatusCmd(opts),
		newTriggerCmd(opts),
		newToggleCmd(opts, "enable", true),
		newToggleCmd(opts, "disable", false),
		newThresholdsCmd(opts),
		newQueueCmd(opts),
		newReportCmd(opts),
		newProductsCmd(opts),
		newRejectionsCmd(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
