package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fareguard-service/internal/app"
	"fareguard-service/internal/infrastructure/config"
	"fareguard-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ecreditctl",
		Short:   "One-shot fare checks and ecredit reconciliation for external schedulers",
		Version: Version,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Print the summary as JSON")

	rootCmd.AddCommand(checkPricesCmd())
	rootCmd.AddCommand(processPendingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func checkPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-prices",
		Short: "Re-price every active flight and raise ecredit requests for drops",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
				return a.Checker.CheckPrices(ctx)
			})
		},
	}
}

func processPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-pending",
		Short: "Submit pending ecredit requests to their airlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (interface{}, error) {
				return a.Reconciler.ProcessPending(ctx)
			})
		},
	}
	return cmd
}

// withApp wires the services, runs one pass and prints its summary
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app.App) (interface{}, error)) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zapLogger := logger.NewLogger(cfg.LogLevel)
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zapLogger.With("command", cmd.Name()), prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	summary, err := run(ctx, a)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %+v\n", cmd.Name(), summary)
	return nil
}
