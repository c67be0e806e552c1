package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/tomopigraphy/gallery/internal/catalog"
	"github.com/tomopigraphy/gallery/internal/config"
	"github.com/tomopigraphy/gallery/internal/describe"
	"github.com/tomopigraphy/gallery/internal/ingest"
	"github.com/tomopigraphy/gallery/internal/render"
	"github.com/tomopigraphy/gallery/internal/store"
)

// buildCatalog selects the catalog backend from configuration.
func buildCatalog(cfg *config.Config) (catalog.Store, error) {
	switch cfg.Catalog.Backend {
	case "file":
		return catalog.NewFileStore(cfg.Catalog.Path), nil
	case "github":
		token, err := config.GitHubToken()
		if err != nil {
			return nil, err
		}
		return catalog.NewGitHubStore(catalog.GitHubOptions{
			Owner:  cfg.Catalog.GitHub.Owner,
			Repo:   cfg.Catalog.GitHub.Repo,
			Branch: cfg.Catalog.GitHub.Branch,
			Path:   cfg.Catalog.Path,
			Token:  token,
		}), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
}

// buildPipeline wires the full ingestion pipeline from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config) (*ingest.Pipeline, *store.S3Store, error) {
	objects, err := store.NewS3Store(ctx, store.Options{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		CDNDomain: cfg.S3.CDNDomain,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to S3: %w", err)
	}

	cat, err := buildCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}

	gen := render.NewGenerator(render.Quality{
		JPEG:      cfg.Image.JPEGQuality,
		Thumbnail: cfg.Image.ThumbnailQuality,
		WebP:      cfg.Image.WebPQuality,
	})

	return ingest.New(objects, cat, gen), objects, nil
}

// newDescriber fails fast when --describe is requested without credentials,
// before any storage call happens.
func newDescriber() (describe.Provider, error) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY environment variable (required by --describe)", config.ErrMissing)
	}
	return describe.NewGemini(""), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path)
}
