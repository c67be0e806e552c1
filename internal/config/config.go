// Package config loads the gallery configuration from a YAML file plus
// environment overrides, and validates it before any storage is touched.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissing marks required settings that are absent. It is fatal for the
// whole run; commands check configuration before making any network call.
var ErrMissing = errors.New("required configuration missing")

// S3 configures the object store gateway.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	CDNDomain string `yaml:"cdnDomain"`
}

// Image configures encoder quality.
type Image struct {
	JPEGQuality      int `yaml:"jpegQuality"`
	ThumbnailQuality int `yaml:"thumbnailQuality"`
	WebPQuality      int `yaml:"webpQuality"`
}

// GitHub identifies the repository holding the catalog and receiving
// dispatch events.
type GitHub struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
}

// Catalog selects and configures the catalog backend.
type Catalog struct {
	// Backend is "file" or "github".
	Backend string `yaml:"backend"`
	// Path is the catalog file path: local path for the file backend,
	// repo-relative for the github backend.
	Path   string `yaml:"path"`
	GitHub GitHub `yaml:"github"`
}

// Dispatch configures the async trigger notification.
type Dispatch struct {
	GitHub    GitHub `yaml:"github"`
	EventType string `yaml:"eventType"`
	Manifest  string `yaml:"manifest"`
}

// Config is the full configuration document.
type Config struct {
	S3       S3       `yaml:"s3"`
	Image    Image    `yaml:"image"`
	Catalog  Catalog  `yaml:"catalog"`
	Dispatch Dispatch `yaml:"dispatch"`
}

// DefaultPath is where commands look for configuration unless --config is
// given.
const DefaultPath = "config/config.yaml"

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file %s not found", ErrMissing, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.S3.Region == "" {
		c.S3.Region = "ap-northeast-1"
	}
	if c.Image.JPEGQuality == 0 {
		c.Image.JPEGQuality = 85
	}
	if c.Image.ThumbnailQuality == 0 {
		c.Image.ThumbnailQuality = 80
	}
	if c.Image.WebPQuality == 0 {
		c.Image.WebPQuality = 85
	}
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = "file"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "docs/data/artworks.json"
	}
	if c.Catalog.GitHub.Branch == "" {
		c.Catalog.GitHub.Branch = "main"
	}
	if c.Dispatch.EventType == "" {
		c.Dispatch.EventType = "process-uploads"
	}
	if c.Dispatch.Manifest == "" {
		c.Dispatch.Manifest = "uploaded_files.json"
	}
}

func (c *Config) validate() error {
	if c.S3.Bucket == "" {
		return fmt.Errorf("%w: s3.bucket", ErrMissing)
	}
	switch c.Catalog.Backend {
	case "file":
	case "github":
		if c.Catalog.GitHub.Owner == "" || c.Catalog.GitHub.Repo == "" {
			return fmt.Errorf("%w: catalog.github.owner and catalog.github.repo", ErrMissing)
		}
	default:
		return fmt.Errorf("unknown catalog backend %q (want file or github)", c.Catalog.Backend)
	}
	return nil
}

// GitHubToken reads the API token for the github catalog backend and the
// dispatch trigger. Tokens never live in the config file.
func GitHubToken() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("%w: GITHUB_TOKEN environment variable", ErrMissing)
	}
	return token, nil
}
