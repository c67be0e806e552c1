// Package catalog persists the single JSON document indexing all artworks.
// Two backends exist: a local file (last-writer-wins) and the GitHub contents
// API (optimistic concurrency via the blob sha).
package catalog

import (
	"context"
	"errors"

	"github.com/tomopigraphy/gallery/internal/gallery"
)

// ErrConflict is returned by Save when the revision token from the preceding
// Load is stale. The caller should reload, re-apply its merge, and retry.
var ErrConflict = errors.New("catalog revision conflict")

// Store loads and saves the catalog document. Load never fails on a missing
// catalog; it returns an empty zero-count document instead. The revision
// token returned by Load must be passed unchanged to the matching Save; a
// backend without revisions returns "".
type Store interface {
	Load(ctx context.Context) (*gallery.Catalog, string, error)
	Save(ctx context.Context, doc *gallery.Catalog, revision string) error
}
