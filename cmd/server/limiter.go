package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/osa911/contactform/internal/server"
)

var limiterCmd = &cobra.Command{
	Use:   "limiter",
	Short: "Inspect or clear the per-address rate limit store",
}

var limiterStatusCmd = &cobra.Command{
	Use:   "status <ip>",
	Short: "Show how many submissions an address has left",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		limiter, closeStore, err := server.NewRateLimiter(cfg.RateLimit, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		status, err := limiter.Status(cmd.Context(), args[0], time.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Address:   %s\n", status.Identity)
		fmt.Fprintf(out, "Store:     %s\n", cfg.RateLimit.Store)
		fmt.Fprintf(out, "Used:      %d/%d\n", status.Used, status.Limit)
		fmt.Fprintf(out, "Remaining: %d\n", status.Remaining)
		if !status.ResetAt.IsZero() {
			fmt.Fprintf(out, "Resets at: %s\n", status.ResetAt.Format(time.RFC3339))
		}
		return nil
	},
}

var limiterResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every recorded submission attempt",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		limiter, closeStore, err := server.NewRateLimiter(cfg.RateLimit, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := limiter.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rate limit store %s cleared\n", cfg.RateLimit.Store)
		return nil
	},
}

func init() {
	limiterCmd.AddCommand(limiterStatusCmd)
	limiterCmd.AddCommand(limiterResetCmd)
}
