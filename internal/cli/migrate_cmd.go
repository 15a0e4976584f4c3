package cli

import (
	"fmt"
	"os"

	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/alexanderramin/neuron/internal/legacy"
	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import the legacy key-value store",
	}
	cmd.AddCommand(newMigrateStatusCmd(app), newMigrateRunCmd(app))
	return cmd
}

func newMigrateStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the legacy store was imported",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMigration(cmd, app)
		},
	}
}

func newMigrateRunCmd(app *App) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import the legacy snapshot once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := from
			if path == "" {
				path = app.LegacyFile
			}
			if path == "" {
				return fmt.Errorf("no legacy file configured; pass --from")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("legacy file: %w", err)
			}

			migrated, err := app.Store.MigrateFromLegacyStore(ctx, legacy.FileSource{Path: path})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !migrated {
				fmt.Fprintln(out, "Legacy store already migrated; nothing to do.")
				return nil
			}
			return printMigration(cmd, app)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Legacy snapshot file (JSON, optionally zstd)")
	return cmd
}

func printMigration(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	meta, err := app.Store.LastMigration(ctx)
	if err != nil {
		return err
	}
	stored, err := app.Store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMigration(meta, stored))
	return nil
}
