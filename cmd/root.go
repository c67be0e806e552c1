package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Photo gallery ingestion tool for static sites",
		Long: `Gallery ingests photographs for a statically generated gallery site.

It derives web renditions (thumbnail, WebP, responsive JPEGs) from each
source image, uploads them to S3, and merges the artwork records into the
site's JSON catalog. Uploads can also go direct-to-S3 via presigned URLs,
with processing triggered later through a repository dispatch event.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newDispatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
