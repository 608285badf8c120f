package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sellerdesk/support-portal/internal/bootstrap"
)

func newSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and repair ticket snapshots",
	}

	var limit int
	backfill := &cobra.Command{
		Use:   "backfill",
		Short: "Capture snapshots for tickets persisted without one",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, _ []string) error {
			result, err := c.Tickets.Backfill(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "captured=%d skipped=%d failed=%d\n", result.Captured, result.Skipped, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d tickets failed to backfill", result.Failed)
			}
			return nil
		}),
	}
	backfill.Flags().IntVar(&limit, "limit", 500, "maximum tickets to process")

	resnapshot := &cobra.Command{
		Use:   "resnapshot <ticket-id>",
		Short: "Rebuild a ticket snapshot from current catalog data",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, args []string) error {
			ticket, err := c.Tickets.Resnapshot(ctx, nil, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s snapshot v%d priority=%s score=%d\n",
				ticket.TicketNumber, ticket.SnapshotVersion, ticket.PriorityTier, ticket.PriorityScore)
			return nil
		}),
	}

	cmd.AddCommand(backfill, resnapshot)
	return cmd
}
