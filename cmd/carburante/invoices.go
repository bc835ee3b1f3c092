package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
)

func invoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Inspect imported invoices",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List imported invoices, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			invoices, err := store.ListInvoices(ctx)
			if err != nil {
				return err
			}

			if len(invoices) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no invoices imported yet"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-5s %-30s %-14s %-12s %-6s %s",
				"id", "file", "supplier VAT", "number", "lines", "imported")))
			for _, invoice := range invoices {
				fmt.Printf("%-5d %-30s %-14s %-12s %-6d %s\n",
					invoice.ID, invoice.FileName, invoice.SupplierVAT,
					invoice.InvoiceNumber, invoice.TotalLines-invoice.FilteredLines,
					invoice.ImportedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Show an invoice's extracted lines and match outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var invoiceID int
			if _, err := fmt.Sscanf(args[0], "%d", &invoiceID); err != nil {
				return fmt.Errorf("invalid invoice ID %q", args[0])
			}

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			invoice, err := store.GetInvoice(ctx, invoiceID)
			if err != nil {
				return err
			}
			lines, err := store.GetInvoiceLines(ctx, invoice.ID)
			if err != nil {
				return err
			}
			counts, err := store.DecisionCounts(ctx, invoice.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("⛽ %s", invoice.FileName)))
			fmt.Printf("  supplier %s, invoice %s, %d lines (%d filtered)\n",
				invoice.SupplierVAT, invoice.InvoiceNumber,
				invoice.TotalLines, invoice.FilteredLines)
			for outcome, count := range counts {
				fmt.Printf("  %s: %d\n", outcome, count)
			}
			for i := range lines {
				for _, e := range lines[i].Errors {
					fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  line %d: ⚠ %s", lines[i].LineNumber, e)))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(show)

	return cmd
}
