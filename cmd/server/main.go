package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"perfeval/internal/app/server"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/platform/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "perfeval",
		Short:        "Performance evaluation service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	rootCmd.AddCommand(newServeCmd(), newRecomputeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newRecomputeCmd() *cobra.Command {
	var periodID, userID string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute final results of a period and exit",
		Long: `Recompute final results from submitted evaluations.

Without --period the active period is used. With --user only that evaluatee is
recomputed. Closed periods are frozen and are rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(cmd.Context(), periodID, userID)
		},
	}
	cmd.Flags().StringVar(&periodID, "period", "", "period id (defaults to the active period)")
	cmd.Flags().StringVar(&userID, "user", "", "recompute a single evaluatee")
	return cmd
}

func setup(ctx context.Context) (*server.App, func(), error) {
	cfg := config.Load()
	closer := logging.Setup(cfg)
	if err := cfg.Validate(); err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	app, err := server.New(ctx, cfg)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	cleanup := func() {
		app.Close()
		if err := closer.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "log close failed:", err)
		}
	}
	return app, cleanup, nil
}

func runServe(ctx context.Context) error {
	app, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Run(ctx)
}

func runRecompute(ctx context.Context, periodID, userID string) error {
	app, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	svcs := app.Services
	if periodID == "" {
		active, err := svcs.Periods.Active(ctx)
		if err != nil {
			return fmt.Errorf("resolve active period: %w", err)
		}
		periodID = active.ID
	}

	jobType, key := jobs.JobRecomputePeriod, periodID
	run := func(ctx context.Context) (any, error) { return svcs.Results.ComputePeriod(ctx, periodID) }
	if userID != "" {
		jobType, key = jobs.JobRecomputeUser, periodID+"/"+userID
		run = func(ctx context.Context) (any, error) { return svcs.Results.ComputeUser(ctx, periodID, userID) }
	}
	out, err := svcs.Jobs.RunNow(ctx, jobType, key, run)
	if err != nil {
		return err
	}
	slog.Info("recompute finished", "periodId", periodID, "userId", userID)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
