// Package handlers implements the local upload server's HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tomopigraphy/gallery/internal/dispatch"
	"github.com/tomopigraphy/gallery/internal/ingest"
)

// PresignFunc issues a direct-to-store upload URL for a key.
type PresignFunc func(ctx context.Context, key, contentType string) (string, error)

// Handler holds the server's collaborators.
type Handler struct {
	pipeline     *ingest.Pipeline
	presign      PresignFunc
	manifestPath string
}

// New returns a Handler over the given pipeline. presign may be nil when the
// store does not support presigning; the endpoint then answers 501.
func New(pipeline *ingest.Pipeline, presign PresignFunc, manifestPath string) *Handler {
	return &Handler{
		pipeline:     pipeline,
		presign:      presign,
		manifestPath: manifestPath,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) appendManifest(e dispatch.Entry) {
	if h.manifestPath == "" {
		return
	}
	if err := dispatch.AppendManifest(h.manifestPath, e); err != nil {
		slog.Warn("Could not record pending upload", "key", e.S3Key, "error", err)
	}
}
