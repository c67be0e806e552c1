package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tomopigraphy/gallery/internal/gallery"
)

// FileStore keeps the catalog in one JSON file. Writes go through a temp file
// and rename, so readers never observe a torn document. There is no revision
// token: concurrent writers are last-writer-wins, which is the documented
// contract for single-machine use.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (*gallery.Catalog, string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No catalog file yet, starting empty", "path", f.path)
			return gallery.NewCatalog(), "", nil
		}
		return nil, "", fmt.Errorf("read catalog: %w", err)
	}

	var doc gallery.Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("parse catalog %s: %w", f.path, err)
	}
	if doc.Artworks == nil {
		doc.Artworks = []gallery.Artwork{}
	}
	return &doc, "", nil
}

func (f *FileStore) Save(_ context.Context, doc *gallery.Catalog, _ string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artworks-*.json")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close catalog: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}
