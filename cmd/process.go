package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tomopigraphy/gallery/internal/dispatch"
)

func newProcessCmd() *cobra.Command {
	var (
		configPath  string
		manifest    string
		autoCaption bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process originals already uploaded to S3",
		Long: `Processes the pending uploads listed in the manifest: fetches each original
from S3, derives its renditions, and merges the artworks into the catalog.

This is the consumer side of the dispatch flow, typically run inside the
site repository's workflow. Redelivered events are safe: an already
processed entry just overwrites the same renditions and catalog record.`,
		Example: `  # Process everything in uploaded_files.json
  gallery process

  # Process a specific manifest
  gallery process --manifest /tmp/batch.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if manifest == "" {
				manifest = cfg.Dispatch.Manifest
			}

			entries, err := dispatch.LoadManifest(manifest)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				slog.Info("No pending uploads", "manifest", manifest)
				return nil
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

			summary := pipeline.RunEntries(cmd.Context(), entries)
			for _, res := range summary.Results {
				if res.Err != nil {
					slog.Error("Failed", "key", res.Ref, "error", res.Err)
					continue
				}
				slog.Info("Processed", "key", res.Ref, "id", res.ID)
			}

			slog.Info("Processing run complete",
				"run_id", summary.RunID,
				"succeeded", summary.Succeeded,
				"failed", summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d entries failed", summary.Failed, len(entries))
			}

			if err := dispatch.ClearManifest(manifest); err != nil {
				return fmt.Errorf("clearing manifest: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest of pending uploads (default from config)")
	cmd.Flags().BoolVar(&autoCaption, "describe", false, "Generate missing titles/descriptions with Gemini")

	return cmd
}
