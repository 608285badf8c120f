package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sellerdesk/support-portal/internal/bootstrap"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/service"
)

func newVendorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendor",
		Short: "Maintain the vendor catalog",
	}

	var input service.VendorInput
	upsert := &cobra.Command{
		Use:   "upsert <handle>",
		Short: "Create or update a vendor and derive its GMV tier",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, args []string) error {
			input.Handle = args[0]
			vendor, err := c.Vendors.Upsert(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s tier=%s gmv=%.2f\n", vendor.Handle, vendor.GMVTier, vendor.GMV90Day)
			return nil
		}),
	}
	flags := upsert.Flags()
	flags.StringVar(&input.Name, "name", "", "display name")
	flags.Float64Var(&input.GMV90Day, "gmv", 0, "gross merchandise value over the last 90 days")
	flags.StringVar(&input.Region, "region", "", "region")
	flags.StringVar(&input.Zone, "zone", "", "zone")
	flags.StringVar(&input.Country, "country", "", "country")
	flags.StringVar(&input.KAMEmail, "kam-email", "", "key account manager email")

	cmd.AddCommand(upsert)
	return cmd
}

func newCategoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Maintain the category tree",
	}

	var input service.CategoryInput
	var issueType string
	upsert := &cobra.Command{
		Use:   "upsert <l1> [l2] [l3] [l4]",
		Short: "Create or update a category node",
		Args:  cobra.RangeArgs(1, 4),
		RunE: withContainer(func(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container, args []string) error {
			levels := make([]string, 4)
			copy(levels, args)
			input.IssueType = domain.IssueType(issueType)
			input.L1, input.L2, input.L3, input.L4 = levels[0], levels[1], levels[2], levels[3]
			category, err := c.Categories.Upsert(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", category.ID, category.IsActive)
			return nil
		}),
	}
	upsert.Flags().StringVar(&issueType, "issue-type", string(domain.IssueTypeComplaint), "Complaint, Request or Information")
	upsert.Flags().BoolVar(&input.Inactive, "inactive", false, "mark the category inactive")

	cmd.AddCommand(upsert)
	return cmd
}
