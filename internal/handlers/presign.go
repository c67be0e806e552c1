package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tomopigraphy/gallery/internal/dispatch"
	"github.com/tomopigraphy/gallery/internal/naming"
	"github.com/tomopigraphy/gallery/internal/store"
)

// HandlePresign issues a time-limited direct-to-store upload URL. The caller
// uploads the original itself; processing happens later via the dispatch
// path, so the handler records the pending key in the manifest.
func (h *Handler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.presign == nil {
		h.writeError(w, "Presigning not configured", http.StatusNotImplemented)
		return
	}

	var req struct {
		FileName    string `json:"fileName"`
		FileType    string `json:"fileType"`
		Title       string `json:"title"`
		Description string `json:"description"`
		FileSize    int64  `json:"fileSize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.FileName == "" || req.FileType == "" {
		h.writeError(w, "fileName and fileType are required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.FileType, "image/") {
		h.writeError(w, "Only image uploads are allowed", http.StatusBadRequest)
		return
	}

	key := naming.OriginalKey(req.FileName, time.Now())
	uploadURL, err := h.presign(r.Context(), key, req.FileType)
	if err != nil {
		h.writeError(w, "Failed to presign upload: "+err.Error(), http.StatusBadGateway)
		return
	}

	date := time.Now()
	if d, ok := naming.LeadingDate(req.FileName); ok {
		date = d
	}
	h.appendManifest(dispatch.Entry{
		S3Key:       key,
		FileName:    req.FileName,
		Title:       req.Title,
		Description: req.Description,
		FileSize:    req.FileSize,
		Date:        date.Format("2006-01-02"),
	})

	slog.Info("Presigned upload", "key", key)
	h.writeJSON(w, map[string]any{
		"uploadUrl": uploadURL,
		"s3Key":     key,
		"expiresIn": store.PresignExpirySeconds(),
	})
}
