// Package export writes the catalog's artwork list to flat files for offline
// analysis and backup.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/tomopigraphy/gallery/internal/gallery"
)

// Row is the flattened per-artwork record written to export files. The
// responsive map does not fit a flat column, so it is carried as JSON.
type Row struct {
	ID             string `parquet:"id" json:"id"`
	Title          string `parquet:"title" json:"title"`
	Description    string `parquet:"description" json:"description"`
	Date           string `parquet:"date" json:"date"`
	Year           int32  `parquet:"year" json:"year"`
	Month          int32  `parquet:"month" json:"month"`
	Original       string `parquet:"original" json:"original"`
	Thumbnail      string `parquet:"thumbnail" json:"thumbnail"`
	WebP           string `parquet:"webp" json:"webp"`
	ResponsiveJSON string `parquet:"responsive_json" json:"responsive_json"`
	Width          int32  `parquet:"width" json:"width"`
	Height         int32  `parquet:"height" json:"height"`
	FileSize       int64  `parquet:"file_size" json:"file_size"`
}

func toRow(a gallery.Artwork) (Row, error) {
	responsive, err := json.Marshal(a.Responsive)
	if err != nil {
		return Row{}, fmt.Errorf("encode responsive map for %s: %w", a.ID, err)
	}
	return Row{
		ID:             a.ID,
		Title:          a.Title,
		Description:    a.Description,
		Date:           a.Date,
		Year:           int32(a.Year),
		Month:          int32(a.Month),
		Original:       a.Original,
		Thumbnail:      a.Thumbnail,
		WebP:           a.WebP,
		ResponsiveJSON: string(responsive),
		Width:          int32(a.Dimensions.Width),
		Height:         int32(a.Dimensions.Height),
		FileSize:       a.FileSize,
	}, nil
}

// Export writes the catalog to path. The format follows the extension:
// .parquet or .jsonl.
func Export(path string, doc *gallery.Catalog) error {
	rows := make([]Row, 0, len(doc.Artworks))
	for _, a := range doc.Artworks {
		row, err := toRow(a)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".parquet":
		return writeParquet(path, rows)
	case ".jsonl":
		return writeJSONL(path, rows)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func writeParquet(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}

	slog.Debug("Wrote parquet export", "path", path, "rows", len(rows))
	return nil
}

func writeJSONL(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("write jsonl row %s: %w", row.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}

	slog.Debug("Wrote jsonl export", "path", path, "rows", len(rows))
	return nil
}
