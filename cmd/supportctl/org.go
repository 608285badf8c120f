package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sellerdesk/support-portal/internal/bootstrap"
)

func newOrgCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Inspect the manager hierarchy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report loops in manager assignments",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, _ []string) error {
			cycles, err := c.Users.ManagerCycles(ctx)
			if err != nil {
				return err
			}
			return printCycles(cmd, cycles)
		}),
	})
	return cmd
}

func printCycles(cmd *cobra.Command, cycles [][]string) error {
	out := cmd.OutOrStdout()
	if len(cycles) == 0 {
		fmt.Fprintln(out, "manager hierarchy ok")
		return nil
	}
	for _, cycle := range cycles {
		fmt.Fprintf(out, "cycle: %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
	}
	return fmt.Errorf("found %d manager cycles", len(cycles))
}
