package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"daily-meal-notifier/internal/app"
	"daily-meal-notifier/internal/config"
	"daily-meal-notifier/internal/logging"
	"daily-meal-notifier/internal/metrics"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "daily-meal-notifier",
		Short:         "Send today's planned meal to Telegram every day",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(serveCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(cleanupCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler until interrupted (default)",
		RunE:  runServe,
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send today's meal once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, logger, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := a.Connect(ctx); err != nil {
				return err
			}
			run, err := a.SendOnce(ctx)
			if err != nil {
				return err
			}
			logger.Info().Str("run_id", run.ID).Str("status", run.Status).Msg("one-shot run finished")
			return oneShotResult(run)
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent notification runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()
			return a.PrintHistory(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func cleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Delete run history older than the given number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := a.CleanupHistory(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs older than %d days.\n", n, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "keep runs newer than this many days")
	return cmd
}

// oneShotResult turns a finished manual run into the command's exit status:
// anything short of a delivery to every destination is an error.
func oneShotResult(run metrics.JobRun) error {
	switch run.Status {
	case metrics.StatusSent:
		return nil
	case metrics.StatusPartial:
		return fmt.Errorf("run %s delivered to some destinations only", run.ID)
	default:
		if run.Error != "" {
			return fmt.Errorf("run %s %s: %s", run.ID, run.Status, run.Error)
		}
		return fmt.Errorf("run %s %s", run.ID, run.Status)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, logger, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := a.Connect(ctx); err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}

	logger.Info().Msg("daily meal notifier starting")
	if err := a.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("service stopped")
		return err
	}
	logger.Info().Msg("service exiting")
	return nil
}

// setup loads configuration, opens the log and creates the App. The returned
// func closes everything setup opened.
func setup() (*app.App, *zerolog.Logger, func(), error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logCloser.Close()
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("error while closing resources")
		}
		logCloser.Close()
	}
	return a, logger, closeFn, nil
}
