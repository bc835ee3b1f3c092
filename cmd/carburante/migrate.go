package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flottaio/carburante/internal/cli"
	"github.com/flottaio/carburante/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ database at schema version %d (expected %d)",
				version, storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
