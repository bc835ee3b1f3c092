package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/model"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage per-supplier extraction templates",
	}

	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesShowCmd())
	cmd.AddCommand(templatesAddCmd())
	cmd.AddCommand(templatesTestCmd())

	return cmd
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := store.ListTemplates(ctx)
			if err != nil {
				return err
			}

			if len(templates) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no templates yet — add one with: carburante templates add"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-5s %-25s %-14s %-8s", "id", "name", "supplier VAT", "active")))
			for _, template := range templates {
				fmt.Printf("%-5d %-25s %-14s %-8v\n",
					template.ID, template.Name, template.SupplierVAT, template.IsActive)
			}
			return nil
		},
	}
}

func templatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a template's config as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid template ID %q", args[0])
			}

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			template, err := store.GetTemplate(ctx, id)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(template.Config, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode template: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}

func templatesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a template from a config JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			name, _ := cmd.Flags().GetString("name")
			supplierVAT, _ := cmd.Flags().GetString("supplier-vat")

			config, err := loadTemplateConfig(file)
			if err != nil {
				return err
			}
			if name == "" {
				name = config.Name
			}

			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			template := &model.Template{
				Name:        name,
				SupplierVAT: supplierVAT,
				Config:      config,
				IsActive:    true,
			}
			if err := store.CreateTemplate(ctx, template); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ template %d (%s) registered for supplier %s",
				template.ID, template.Name, template.SupplierVAT)))
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "Template config JSON file")
	cmd.Flags().StringP("name", "n", "", "Template name (defaults to the config's name)")
	cmd.Flags().String("supplier-vat", "", "Supplier VAT number the template applies to")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("supplier-vat")

	return cmd
}

func templatesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [invoice.xml]",
		Short: "Dry-run a template config against an invoice file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			config, err := loadTemplateConfig(file)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			result := newExtractor().ExtractBytes(raw, config)
			fmt.Print(cli.RenderExtraction(args[0], result))

			if result.Success {
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("supplier VAT detected: %s",
					result.InvoiceMetadata.SupplierVAT)))
			}
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "Template config JSON file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
