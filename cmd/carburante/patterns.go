package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/model"
)

func patternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns [sample text]",
		Short: "List the reusable regex pattern library for template authoring",
		Long: `List the reusable regex patterns for template authoring. With a sample
text argument, each pattern is tried against the sample so you can see
which ones would extract something from a real invoice description.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var sample string
			if len(args) == 1 {
				sample = args[0]
			}

			fmt.Println(cli.TitleStyle.Render("Pattern library"))
			for _, info := range model.PatternCatalog() {
				fmt.Printf("%s\n", cli.BoldStyle.Render(info.Name))
				fmt.Printf("  %s\n", info.Description)
				fmt.Printf("  regex:   %s\n", info.Regex)
				fmt.Printf("  example: %s\n", cli.SubtleStyle.Render(info.Example))

				if sample == "" {
					continue
				}
				matched, err := common.MatchRegex(info.Regex, sample)
				if err != nil {
					return fmt.Errorf("pattern %s: %w", info.Name, err)
				}
				if matched {
					fmt.Printf("  sample:  %s\n", cli.SuccessStyle.Render("✓ matches"))
				} else {
					fmt.Printf("  sample:  %s\n", cli.SubtleStyle.Render("no match"))
				}
			}
			return nil
		},
	}
}
