package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/osa911/contactform/internal/config"
	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/server"
	"github.com/osa911/contactform/internal/telemetry"
	"github.com/osa911/contactform/internal/version"
)

var logger *logging.Logger

// setup loads configuration and initializes the global logger
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logConfig := &logging.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}
	if err := logging.InitLogger(logConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logging.GetGlobalLogger()

	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "contactform",
	Short: "Contact form intake API",
	Long: `contactform accepts website contact form submissions, filters spam,
throttles repeat senders and forwards accepted inquiries to the site owner.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		logger.Info("Starting contact API %s in %s mode", version.Info(), cfg.Environment)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, "contactform")
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}()

		components, err := server.Bootstrap(cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize contact pipeline: %v", err)
			return err
		}
		defer components.Close()

		srv := server.NewServer(cfg, logger)
		srv.Init(components.Contact)

		return srv.Start(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "contactform %s\n", version.Info())
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s, Platform: %s\n", info.GoVersion, info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(limiterCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
