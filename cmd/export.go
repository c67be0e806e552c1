package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tomopigraphy/gallery/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog for offline analysis",
		Long: `Exports the catalog to a columnar or line-delimited file. The output
format follows the file extension: .parquet or .jsonl.`,
		Example: `  # Export to Parquet
  gallery export --output artworks.parquet

  # Export to JSON lines
  gallery export --output artworks.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			cat, err := buildCatalog(cfg)
			if err != nil {
				return err
			}
			doc, _, err := cat.Load(cmd.Context())
			if err != nil {
				return err
			}

			if err := export.Export(output, doc); err != nil {
				return err
			}
			slog.Info("Exported catalog", "artworks", doc.TotalCount, "output", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVarP(&output, "output", "o", "artworks.parquet", "Output file (.parquet or .jsonl)")

	return cmd
}
