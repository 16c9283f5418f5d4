package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/purse/internal/cli"
	"github.com/Veraticus/purse/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending schema migrations and report the schema version.

Migrations also run automatically before every command that opens the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(_ context.Context, svc *services) error {
				version, err := svc.store.SchemaVersion()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
					"Database %s at schema version %d (expected %d)",
					svc.store.Path(), version, storage.ExpectedSchemaVersion)))
				return nil
			})
		},
	}
}
