package cli

import (
	"fmt"
	"os"

	"github.com/alexanderramin/neuron/internal/legacy"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var outPath string
	var compress bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every demand and completion mark as a legacy snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if outPath == "" || outPath == "-" {
				return app.Store.Export(ctx, cmd.OutOrStdout(), compress)
			}

			if !cmd.Flags().Changed("zstd") {
				compress = legacy.IsCompressedPath(outPath)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			if err := app.Store.Export(ctx, f, compress); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout); .zst enables compression")
	cmd.Flags().BoolVar(&compress, "zstd", false, "Compress with zstd")
	return cmd
}
