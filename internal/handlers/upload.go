package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomopigraphy/gallery/internal/ingest"
)

// maxUploadBytes limits one upload to 50MB.
const maxUploadBytes = 50 * 1024 * 1024

// HandleUpload ingests one multipart image synchronously and answers with the
// resulting artwork record.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(data) >= maxUploadBytes {
		h.writeError(w, "File too large (max 50MB)", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	// The pipeline reads from disk, so stage the upload in a temp file
	// that keeps the original name for id derivation.
	tempDir, err := os.MkdirTemp("", "gallery-upload-*")
	if err != nil {
		h.writeError(w, "Failed to stage upload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filepath.Base(header.Filename))
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		h.writeError(w, "Failed to stage upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Processing upload", "file", header.Filename, "size", len(data))

	art, err := h.pipeline.IngestFile(r.Context(), ingest.Item{
		Path:        tempPath,
		Title:       title,
		Description: r.FormValue("description"),
	})
	if err != nil {
		h.writeError(w, "Upload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]any{
		"success": true,
		"message": "Image uploaded successfully",
		"artwork": art,
	})
}
