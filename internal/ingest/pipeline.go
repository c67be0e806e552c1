// Package ingest orchestrates the artwork ingestion pipeline: derive ids and
// keys, generate renditions, upload them, and merge the record into the
// catalog. Each artwork runs strictly sequentially; a batch processes items
// one at a time and tallies per-item failures without aborting siblings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomopigraphy/gallery/internal/catalog"
	"github.com/tomopigraphy/gallery/internal/describe"
	"github.com/tomopigraphy/gallery/internal/dispatch"
	"github.com/tomopigraphy/gallery/internal/gallery"
	"github.com/tomopigraphy/gallery/internal/naming"
	"github.com/tomopigraphy/gallery/internal/render"
	"github.com/tomopigraphy/gallery/internal/store"
)

// maxCatalogRetries bounds the reload-merge-retry loop on catalog revision
// conflicts.
const maxCatalogRetries = 3

// Pipeline wires the collaborators for ingestion. All clients are constructed
// and passed in; the pipeline holds no ambient state.
type Pipeline struct {
	Store     store.ObjectStore
	Catalog   catalog.Store
	Generator *render.Generator
	// Describer, when set, fills in empty titles/descriptions from the
	// image itself.
	Describer describe.Provider

	now func() time.Time
}

// New returns a Pipeline over the given collaborators.
func New(objects store.ObjectStore, cat catalog.Store, gen *render.Generator) *Pipeline {
	return &Pipeline{
		Store:     objects,
		Catalog:   cat,
		Generator: gen,
		now:       time.Now,
	}
}

// Item is one local source image to ingest.
type Item struct {
	Path        string
	Title       string
	Description string
	// UseFileDate selects the file's modification time as the artwork
	// date instead of the moment of upload.
	UseFileDate bool
}

// ItemResult records the outcome for one item in a batch.
type ItemResult struct {
	// Ref identifies the item for manual retry: the file path for local
	// ingestion, the storage key for remote processing.
	Ref     string
	ID      string
	Artwork *gallery.Artwork
	Err     error
}

// Summary is a batch's overall result.
type Summary struct {
	RunID     string
	Succeeded int
	Failed    int
	Results   []ItemResult
}

// Run ingests a batch of local images sequentially, in input order. Per-item
// failures are recorded and the batch continues with the next item.
func (p *Pipeline) Run(ctx context.Context, items []Item) Summary {
	summary := Summary{RunID: uuid.NewString()}
	slog.Info("Starting ingestion run", "run_id", summary.RunID, "items", len(items))

	for _, item := range items {
		art, err := p.IngestFile(ctx, item)
		result := ItemResult{Ref: item.Path, Artwork: art, Err: err}
		if art != nil {
			result.ID = art.ID
		}
		if err != nil {
			summary.Failed++
			slog.Error("Ingestion failed", "item", item.Path, "error", err)
		} else {
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, result)
	}

	slog.Info("Ingestion run finished",
		"run_id", summary.RunID, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary
}

// IngestFile runs the full pipeline for one local image: derive id and keys,
// generate renditions, upload original plus renditions in fixed order, then
// merge the record into the catalog. Renditions uploaded before a failure are
// left in place; there is no rollback.
func (p *Pipeline) IngestFile(ctx context.Context, item Item) (*gallery.Artwork, error) {
	info, err := os.Stat(item.Path)
	if err != nil {
		return nil, fmt.Errorf("source image: %w", err)
	}

	date := p.now()
	if item.UseFileDate {
		date = info.ModTime()
	}

	src, err := os.ReadFile(item.Path)
	if err != nil {
		return nil, fmt.Errorf("read source image: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(item.Path))
	id := naming.DeriveID(filepath.Base(item.Path), date)
	slog.Info("Ingesting image", "id", id, "path", item.Path, "date", date.Format("2006-01-02"))

	art, err := p.ingest(ctx, source{
		id:          id,
		ext:         ext,
		date:        date,
		bytes:       src,
		title:       item.Title,
		description: item.Description,
		preset:      render.ThumbFit300,
	})
	if err != nil {
		return nil, err
	}
	return art, nil
}

// ProcessEntry runs pipeline steps 2-5 for an object already uploaded
// directly to the store (the asynchronous path). The entry's key and file
// name determine the id; re-processing the same entry upserts the same record.
func (p *Pipeline) ProcessEntry(ctx context.Context, entry dispatch.Entry) (*gallery.Artwork, error) {
	src, err := p.Store.Get(ctx, entry.S3Key)
	if err != nil {
		return nil, fmt.Errorf("download original: %w", err)
	}

	date, ok := naming.LeadingDate(entry.FileName)
	if !ok {
		if date, err = time.Parse("2006-01-02", entry.Date); err != nil {
			return nil, fmt.Errorf("entry %s: no usable date: %w", entry.S3Key, err)
		}
	}

	ext := strings.ToLower(filepath.Ext(entry.FileName))
	id := naming.DeriveID(entry.FileName, date)
	slog.Info("Processing uploaded object", "id", id, "key", entry.S3Key)

	return p.ingest(ctx, source{
		id:          id,
		ext:         ext,
		date:        date,
		bytes:       src,
		title:       entry.Title,
		description: entry.Description,
		preset:      render.ThumbCover400,
		originalKey: entry.S3Key,
	})
}

// RunEntries processes a manifest of uploaded objects with the same batch
// semantics as Run.
func (p *Pipeline) RunEntries(ctx context.Context, entries []dispatch.Entry) Summary {
	summary := Summary{RunID: uuid.NewString()}
	slog.Info("Starting processing run", "run_id", summary.RunID, "entries", len(entries))

	for _, entry := range entries {
		art, err := p.ProcessEntry(ctx, entry)
		result := ItemResult{Ref: entry.S3Key, Artwork: art, Err: err}
		if art != nil {
			result.ID = art.ID
		}
		if err != nil {
			summary.Failed++
			slog.Error("Processing failed", "key", entry.S3Key, "error", err)
		} else {
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, result)
	}

	slog.Info("Processing run finished",
		"run_id", summary.RunID, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary
}

// source is the normalized input both ingestion paths reduce to.
type source struct {
	id          string
	ext         string
	date        time.Time
	bytes       []byte
	title       string
	description string
	preset      render.ThumbPreset
	// originalKey, when set, marks the original as already stored under
	// that key; the pipeline skips re-uploading it.
	originalKey string
}

func (p *Pipeline) ingest(ctx context.Context, src source) (*gallery.Artwork, error) {
	renditions, err := p.Generator.Derive(src.bytes, src.preset)
	if err != nil {
		return nil, err
	}
	slog.Info("Renditions generated",
		"id", src.id, "dimensions", fmt.Sprintf("%dx%d", renditions.Width, renditions.Height),
		"responsive", len(renditions.Responsive))

	title, description := src.title, src.description
	if p.Describer != nil && title == "" && description == "" {
		d, err := p.Describer.Describe(ctx, src.bytes, contentType(src.ext))
		if err != nil {
			slog.Warn("Description generation failed, continuing without", "id", src.id, "error", err)
		} else {
			title, description = d.Title, d.Description
			slog.Info("Generated description", "id", src.id, "title", title)
		}
	}

	keys := naming.ObjectKeys(src.id, src.ext, src.date)

	// Fixed upload order: original, thumbnail, webp, responsive ascending.
	var originalURL string
	if src.originalKey != "" {
		originalURL = p.Store.PublicURL(src.originalKey)
	} else {
		if originalURL, err = p.Store.Put(ctx, keys.Original, src.bytes, contentType(src.ext)); err != nil {
			return nil, fmt.Errorf("upload original: %w", err)
		}
		slog.Info("Uploaded original", "id", src.id, "key", keys.Original)
	}

	thumbnailURL, err := p.Store.Put(ctx, keys.Thumbnail, renditions.Thumbnail, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}
	slog.Info("Uploaded thumbnail", "id", src.id, "key", keys.Thumbnail)

	webpURL, err := p.Store.Put(ctx, keys.WebP, renditions.WebP, "image/webp")
	if err != nil {
		return nil, fmt.Errorf("upload webp: %w", err)
	}
	slog.Info("Uploaded webp", "id", src.id, "key", keys.WebP)

	responsiveURLs := make(map[int]string, len(renditions.Responsive))
	for _, width := range sortedWidths(renditions.Responsive) {
		url, err := p.Store.Put(ctx, keys.Responsive[width], renditions.Responsive[width], "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("upload %dw rendition: %w", width, err)
		}
		responsiveURLs[width] = url
		slog.Info("Uploaded responsive rendition", "id", src.id, "width", width)
	}

	art := &gallery.Artwork{
		ID:          src.id,
		Title:       title,
		Description: description,
		Date:        src.date.Format("2006-01-02"),
		Year:        src.date.Year(),
		Month:       int(src.date.Month()),
		Original:    originalURL,
		Thumbnail:   thumbnailURL,
		WebP:        webpURL,
		Responsive:  responsiveURLs,
		Dimensions:  gallery.Dimensions{Width: renditions.Width, Height: renditions.Height},
		FileSize:    int64(len(src.bytes)),
	}

	if err := p.mergeCatalog(ctx, *art); err != nil {
		return nil, err
	}
	slog.Info("Catalog updated", "id", src.id)
	return art, nil
}

// mergeCatalog runs load -> upsert -> save, retrying on revision conflicts
// with a fresh load each time.
func (p *Pipeline) mergeCatalog(ctx context.Context, art gallery.Artwork) error {
	var err error
	for attempt := 1; attempt <= maxCatalogRetries; attempt++ {
		var doc *gallery.Catalog
		var revision string
		if doc, revision, err = p.Catalog.Load(ctx); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		doc.Upsert(art, p.now())

		err = p.Catalog.Save(ctx, doc, revision)
		if err == nil {
			return nil
		}
		if !errors.Is(err, catalog.ErrConflict) {
			return fmt.Errorf("save catalog: %w", err)
		}
		slog.Warn("Catalog revision conflict, retrying merge", "id", art.ID, "attempt", attempt)
	}
	return fmt.Errorf("save catalog after %d attempts: %w", maxCatalogRetries, err)
}

func sortedWidths(m map[int][]byte) []int {
	widths := make([]int, 0, len(m))
	for w := range m {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

func contentType(ext string) string {
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
