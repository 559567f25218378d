package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/healthup/internal/buildinfo"
	"github.com/dmitrijs2005/healthup/internal/client/cli"
	"github.com/dmitrijs2005/healthup/internal/client/config"
	"github.com/dmitrijs2005/healthup/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Configuration flags (-a, -d, -t, -l, -c) are read by the config package
// straight from os.Args, so cobra is told to leave them alone.
func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "healthup",
		Short:              "HealthUp fitness client",
		Long:               "Interactive client for logging meals and managing workouts on a HealthUp server.",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
				app.Run(ctx)
				return nil
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:                "status",
			Short:              "Verify the stored session and show who is signed in",
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
					return app.PrintStatus(ctx)
				})
			},
		},
		&cobra.Command{
			Use:                "logout",
			Short:              "Sign out and forget the stored session",
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), func(ctx context.Context, app *cli.App) error {
					return app.SignOut(ctx)
				})
			},
		},
	)

	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *cli.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, os.Stderr)
	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn(ctx, "close database", "error", err)
		}
	}()

	return fn(ctx, app)
}
