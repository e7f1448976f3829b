package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"order-service/internal/config"
	"order-service/internal/domain"

	"github.com/spf13/cobra"
)

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <orders.json>",
		Short: "Submit a JSON array of orders and print the per-item result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var reqs []domain.OrderRequest
			if err := json.Unmarshal(raw, &reqs); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result := a.service.SubmitBatch(ctx, reqs)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d orders failed", result.Failed, result.Total)
			}
			return nil
		},
	}
}
