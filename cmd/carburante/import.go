package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/service"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import FatturaPA invoices: extract, persist, and match",
		Long: `Import fuel invoices end to end: parse each XML document, pick the
supplier's template by VAT number, extract line items, persist them, and
reconcile the lines against your fleet.

Examples:
  # Import a single invoice
  carburante import ~/Downloads/IT00484960588_00001.xml

  # Import a directory of invoices with a forced template
  carburante import --template 3 ~/invoices/*.xml

  # Preview without touching the database
  carburante import --dry-run ~/invoices/*.xml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().IntP("template", "t", 0, "Force a template ID instead of detecting the supplier")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	templateID, _ := cmd.Flags().GetInt("template")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	files, err := expandFileArgs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	importer := service.NewImporter(store, newExtractor(), newMatcher())
	summary, err := importer.ImportFiles(ctx, files, service.ImportOptions{
		DryRun:       dryRun,
		TemplateID:   templateID,
		ShowProgress: !noProgress && len(files) > 1,
	})
	if err != nil {
		return err
	}

	fmt.Print(cli.RenderImportSummary(summary))

	for _, result := range summary.Results {
		if result.Err == nil || result.Skipped {
			continue
		}
		common.LogError(result.Err, "file import failed", common.Fields{
			"file":   result.File,
			"run_id": summary.RunID,
		})
	}

	if dryRun {
		for _, result := range summary.Results {
			if result.Err != nil {
				continue
			}
			fmt.Print(cli.RenderExtraction(result.File, result.Result))
			fmt.Print(cli.RenderDecisions(result.Decisions))
		}
	}

	return nil
}
