package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sellerdesk/support-portal/internal/bootstrap"
)

func newSLACommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sla",
		Short: "Recompute SLA targets and statuses",
	}

	recalc := &cobra.Command{
		Use:   "recalc <ticket-id>",
		Short: "Recompute live SLA targets from the current configuration",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, args []string) error {
			ticket, err := c.Tickets.RecalculateSLA(ctx, nil, args[0])
			if err != nil {
				return err
			}
			target := "none"
			if ticket.SLAResolveTarget != nil {
				target = ticket.SLAResolveTarget.UTC().Format("2006-01-02T15:04:05Z")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s resolve_target=%s status=%s\n", ticket.TicketNumber, target, ticket.SLAStatus)
			return nil
		}),
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Run one SLA monitor pass",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, _ []string) error {
			result, err := c.Monitor.Sweep(ctx)
			if result.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: another monitor holds the lock")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d at_risk=%d breached=%d\n", result.Scanned, result.AtRisk, result.Breached)
			return err
		}),
	}

	cmd.AddCommand(recalc, sweep)
	return cmd
}
