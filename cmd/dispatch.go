package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tomopigraphy/gallery/internal/config"
	"github.com/tomopigraphy/gallery/internal/dispatch"
)

func newDispatchCmd() *cobra.Command {
	var (
		configPath string
		manifest   string
		keep       bool
	)

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Trigger remote processing of pending uploads",
		Long: `Sends one repository dispatch event carrying every pending upload from the
manifest, then clears the manifest.

The receiving workflow runs "gallery process" against the same entries.
Acceptance of the event only means the hook received it; the catalog
reflects the uploads once that workflow finishes.`,
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
				slog.Info("No pending uploads to dispatch", "manifest", manifest)
				return nil
			}

			if cfg.Dispatch.GitHub.Owner == "" || cfg.Dispatch.GitHub.Repo == "" {
				return fmt.Errorf("%w: dispatch.github.owner and dispatch.github.repo", config.ErrMissing)
			}
			token, err := config.GitHubToken()
			if err != nil {
				return err
			}
			client := dispatch.NewClient(dispatch.Options{
				Owner:     cfg.Dispatch.GitHub.Owner,
				Repo:      cfg.Dispatch.GitHub.Repo,
				Token:     token,
				EventType: cfg.Dispatch.EventType,
			})

			if err := client.Notify(cmd.Context(), entries); err != nil {
				return err
			}
			slog.Info("Dispatched processing event",
				"files", len(entries),
				"repo", cfg.Dispatch.GitHub.Owner+"/"+cfg.Dispatch.GitHub.Repo,
				"event", cfg.Dispatch.EventType)

			if keep {
				return nil
			}
			return dispatch.ClearManifest(manifest)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest of pending uploads (default from config)")
	cmd.Flags().BoolVar(&keep, "keep-manifest", false, "Leave the manifest in place after dispatching")

	return cmd
}
