package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ProductCurator/internal/app"
	"ProductCurator/internal/config"
	"ProductCurator/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "productcurator",
	Short:        "Product quality scoring and curation service",
	SilenceUsage: true,
	RunE:         serve,
}

var runCmd = &cobra.Command{
	Use:   "run <job>",
	Short: "Run one job once and exit",
	Example: `  productcurator run daily-product-curation
  productcurator run inventory-sync -c configs/config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runOnce,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to YAML config (defaults to $PRODUCT_CURATOR_CONFIG)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	return config.Load(), nil
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	logger.Info("application stopped")
	return nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	state, err := application.RunJob(ctx, args[0])
	if err != nil {
		logger.Error("job failed", "job", args[0], "error", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", state.Name, state.Status, state.LastSummary)
	return nil
}
