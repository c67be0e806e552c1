package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomopigraphy/gallery/internal/catalog"
	"github.com/tomopigraphy/gallery/internal/dispatch"
	"github.com/tomopigraphy/gallery/internal/gallery"
	"github.com/tomopigraphy/gallery/internal/ingest"
	"github.com/tomopigraphy/gallery/internal/render"
	"github.com/tomopigraphy/gallery/internal/store"
)

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	f.objects[key] = body
	return f.PublicURL(key), nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return data, nil
}

func (f *fakeStore) PublicURL(key string) string { return "https://cdn.test/" + key }

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y % 256), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestHandler(t *testing.T, presign PresignFunc) (*Handler, *catalog.FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.NewFileStore(filepath.Join(dir, "artworks.json"))
	pipeline := ingest.New(&fakeStore{objects: map[string][]byte{}}, cat, render.NewGenerator(render.Quality{}))
	manifest := filepath.Join(dir, "uploaded_files.json")
	return New(pipeline, presign, manifest), cat, manifest
}

func multipartBody(t *testing.T, fileName string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	h, cat, _ := newTestHandler(t, nil)

	body, contentType := multipartBody(t, "20251108_DSC03318.jpg", testJPEG(t, 640, 480), map[string]string{
		"title": "Sunset",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool            `json:"success"`
		Artwork gallery.Artwork `json:"artwork"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Bad response: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success=true")
	}
	if !strings.HasSuffix(resp.Artwork.ID, "_DSC03318") {
		t.Errorf("Unexpected artwork id: %s", resp.Artwork.ID)
	}
	if resp.Artwork.Title != "Sunset" {
		t.Errorf("Expected title Sunset, got %s", resp.Artwork.Title)
	}

	doc, _, err := cat.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalCount != 1 {
		t.Errorf("Expected catalog entry, got %d", doc.TotalCount)
	}
}

func TestHandleUploadRejectsCorruptImage(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	body, contentType := multipartBody(t, "broken.jpg", []byte("not an image"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.HandleUpload(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for corrupt image, got %d", rec.Code)
	}
}

func TestHandleUploadMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestHandlePresign(t *testing.T) {
	presign := func(_ context.Context, key, contentType string) (string, error) {
		return "https://signed.test/" + key, nil
	}
	h, _, manifest := newTestHandler(t, presign)

	payload := `{"fileName": "20251108_DSC03318.jpg", "fileType": "image/jpeg", "title": "Sunset", "fileSize": 2048}`
	req := httptest.NewRequest(http.MethodPost, "/api/presign", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.HandlePresign(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UploadURL string `json:"uploadUrl"`
		S3Key     string `json:"s3Key"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Bad response: %v", err)
	}
	if resp.S3Key != "originals/2025/11/20251108_DSC03318.jpg" {
		t.Errorf("Unexpected key: %s", resp.S3Key)
	}
	if resp.UploadURL != "https://signed.test/"+resp.S3Key {
		t.Errorf("Unexpected upload URL: %s", resp.UploadURL)
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("Expected 900s expiry, got %d", resp.ExpiresIn)
	}

	// The pending upload is recorded for a later dispatch.
	entries, err := dispatch.LoadManifest(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].S3Key != resp.S3Key || entries[0].Date != "2025-11-08" {
		t.Errorf("Unexpected manifest: %+v", entries)
	}
}

func TestHandlePresignValidation(t *testing.T) {
	presign := func(_ context.Context, key, contentType string) (string, error) {
		return "https://signed.test/" + key, nil
	}
	h, _, _ := newTestHandler(t, presign)

	tests := []struct {
		name    string
		payload string
		code    int
	}{
		{"missing fields", `{}`, http.StatusBadRequest},
		{"non-image type", `{"fileName": "a.txt", "fileType": "text/plain"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/presign", strings.NewReader(tt.payload))
			rec := httptest.NewRecorder()
			h.HandlePresign(rec, req)
			if rec.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestHandlePresignNotConfigured(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/presign",
		strings.NewReader(`{"fileName": "a.jpg", "fileType": "image/jpeg"}`))
	rec := httptest.NewRecorder()
	h.HandlePresign(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Errorf("Expected 501, got %d", rec.Code)
	}
}
