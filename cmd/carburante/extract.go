package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/model"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract invoice lines without persisting anything",
		Long: `Run a template against invoice files and print the extracted lines.
Nothing is written to the database; use this to inspect extraction while
authoring a template.

Examples:
  # Extract with a stored template
  carburante extract --template 3 invoice.xml

  # Extract with a template config straight from a JSON file
  carburante extract --template-file edenred.json invoice.xml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().IntP("template", "t", 0, "Stored template ID")
	cmd.Flags().StringP("template-file", "f", "", "Template config JSON file")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	templateID, _ := cmd.Flags().GetInt("template")
	templateFile, _ := cmd.Flags().GetString("template-file")

	var templateConfig model.TemplateConfig
	switch {
	case templateFile != "":
		cfg, err := loadTemplateConfig(templateFile)
		if err != nil {
			return err
		}
		templateConfig = cfg
	case templateID != 0:
		ctx := cmd.Context()
		store, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		template, err := store.GetTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		templateConfig = template.Config
	default:
		return fmt.Errorf("either --template or --template-file is required")
	}

	files, err := expandFileArgs(args)
	if err != nil {
		return err
	}

	extractor := newExtractor()
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		result := extractor.ExtractBytes(raw, templateConfig)
		fmt.Print(cli.RenderExtraction(file, result))
	}

	return nil
}
