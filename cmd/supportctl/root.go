package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/bootstrap"
	"github.com/sellerdesk/support-portal/internal/config"
	"github.com/sellerdesk/support-portal/internal/observability"
)

// runner executes fn against a fully wired container.
type runner func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, args []string) error

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "supportctl",
		Short:         "Maintenance commands for the support portal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newSnapshotCommand(),
		newSLACommand(),
		newOrgCommand(),
		newVendorCommand(),
		newCategoryCommand(),
	)
	return root
}

// withContainer loads configuration, connects and hands the container to fn.
func withContainer(fn runner) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := observability.NewLogger(cfg.Logger)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		c, err := bootstrap.New(ctx, cfg, logger.Named("supportctl"))
		if err != nil {
			return err
		}
		defer c.Close()

		if err := fn(ctx, cmd, c, args); err != nil {
			logger.Error("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
			return err
		}
		return nil
	}
}
