package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bissquit/firemap/internal/app"
	"github.com/bissquit/firemap/internal/config"
	"github.com/bissquit/firemap/internal/version"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "firemap",
		Short:         "firemap serves fire-brigade incidents on a live map",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newFetchCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the feed, dashboard and metrics servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				slog.Error("failed to initialize application", "error", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- application.Run() }()

			select {
			case err := <-errCh:
				if err != nil {
					slog.Error("server stopped", "error", err)
					return err
				}
				return nil
			case <-ctx.Done():
				slog.Info("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := application.Shutdown(shutdownCtx); err != nil {
				slog.Error("graceful shutdown failed", "error", err)
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}

func newFetchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Build the incident feed once and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			f, err := app.NewFeed(cfg, nil)
			if err != nil {
				return err
			}
			defer f.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(f.Service.Incidents(cmd.Context())); err != nil {
				return fmt.Errorf("encode feed: %w", err)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}
