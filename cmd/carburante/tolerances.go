package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/config"
)

func tolerancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tolerances",
		Short: "Inspect and configure matching tolerances",
	}

	cmd.AddCommand(tolerancesShowCmd())
	cmd.AddCommand(tolerancesSetCmd())

	return cmd
}

func tolerancesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the tolerances that apply to a supplier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			supplierVAT, _ := cmd.Flags().GetString("supplier")

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tolerances, err := store.GetTolerances(ctx, supplierVAT)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(tolerances, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode tolerances: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
	cmd.Flags().String("supplier", "", "Supplier VAT number (empty shows the tenant default)")

	return cmd
}

func tolerancesSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store matching tolerances for a supplier or the whole tenant",
		Long: `Store matching tolerances. The starting point is the config file's
matching.* section (or the built-in defaults); flags override individual
values. With --supplier the tolerances apply to that supplier only,
otherwise they become the tenant-wide default.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			supplierVAT, _ := cmd.Flags().GetString("supplier")

			tolerances := config.TolerancesFromViper()
			if cmd.Flags().Changed("date-days") {
				tolerances.DateToleranceDays, _ = cmd.Flags().GetInt("date-days")
			}
			if cmd.Flags().Changed("quantity-percent") {
				tolerances.QuantityTolerancePercent, _ = cmd.Flags().GetFloat64("quantity-percent")
			}
			if cmd.Flags().Changed("amount-percent") {
				tolerances.AmountTolerancePercent, _ = cmd.Flags().GetFloat64("amount-percent")
			}
			if cmd.Flags().Changed("threshold") {
				tolerances.AutoMatchThreshold, _ = cmd.Flags().GetFloat64("threshold")
			}
			if err := tolerances.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveTolerances(ctx, supplierVAT, tolerances); err != nil {
				return err
			}

			common.LogInfo("tolerances updated", common.Fields{
				"supplier":  supplierVAT,
				"threshold": tolerances.AutoMatchThreshold,
			})

			scope := "tenant default"
			if supplierVAT != "" {
				scope = "supplier " + supplierVAT
			}
			fmt.Println(cli.SuccessStyle.Render("✓ tolerances saved for " + scope))
			return nil
		},
	}

	cmd.Flags().String("supplier", "", "Supplier VAT number (empty sets the tenant default)")
	cmd.Flags().Int("date-days", 0, "Date tolerance window in days")
	cmd.Flags().Float64("quantity-percent", 0, "Quantity tolerance as a percentage of the reference")
	cmd.Flags().Float64("amount-percent", 0, "Amount tolerance as a percentage of the reference")
	cmd.Flags().Float64("threshold", 0, "Auto-match threshold between 0 and 1")

	return cmd
}
