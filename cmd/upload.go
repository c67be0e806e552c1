package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tomopigraphy/gallery/internal/ingest"
)

func newUploadCmd() *cobra.Command {
	var (
		configPath  string
		title       string
		description string
		useFileDate bool
		autoCaption bool
	)

	cmd := &cobra.Command{
		Use:   "upload [images...]",
		Short: "Upload images and merge them into the catalog",
		Long: `Uploads one or more images: derives web renditions, stores them in S3, and
merges the artwork records into the catalog.

A --title applies to every image in the batch; when omitted, the sanitized
file name is used. With --describe, images missing a title or description
get one generated from the image itself.`,
		Example: `  # Upload a single image with a title
  gallery upload --title "Winter Light" DSC03318.jpg

  # Upload a folder's worth, dating each by its file modification time
  gallery upload --use-file-date shoot/*.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			pipeline, _, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if autoCaption {
				if pipeline.Describer, err = newDescriber(); err != nil {
					return err
				}
			}

			items := make([]ingest.Item, 0, len(args))
			for _, path := range args {
				items = append(items, ingest.Item{
					Path:        path,
					Title:       title,
					Description: description,
					UseFileDate: useFileDate,
				})
			}

			summary := pipeline.Run(cmd.Context(), items)
			for _, res := range summary.Results {
				if res.Err != nil {
					slog.Error("Failed", "file", res.Ref, "error", res.Err)
					continue
				}
				slog.Info("Uploaded", "file", res.Ref, "id", res.ID)
			}

			slog.Info("Upload run complete",
				"run_id", summary.RunID,
				"succeeded", summary.Succeeded,
				"failed", summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", summary.Failed, len(items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title for the uploaded image(s)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description for the uploaded image(s)")
	cmd.Flags().BoolVar(&useFileDate, "use-file-date", false, "Date artworks by file modification time instead of now")
	cmd.Flags().BoolVar(&autoCaption, "describe", false, "Generate missing titles/descriptions with Gemini")

	return cmd
}
