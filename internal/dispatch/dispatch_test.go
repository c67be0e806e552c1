package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploaded_files.json")

	entries, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("Load of missing manifest failed: %v", err)
	}
	if entries != nil {
		t.Errorf("Expected nil entries for missing manifest, got %v", entries)
	}

	e := Entry{
		S3Key:    "originals/2025/11/20251108_DSC03318.jpg",
		FileName: "20251108_DSC03318.jpg",
		Title:    "Sunset",
		FileSize: 2048,
		Date:     "2025-11-08",
	}
	if err := AppendManifest(path, e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := AppendManifest(path, Entry{S3Key: "originals/2025/11/b.jpg", FileName: "b.jpg"}); err != nil {
		t.Fatalf("Second append failed: %v", err)
	}

	entries, err = LoadManifest(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].S3Key != e.S3Key || entries[0].Title != "Sunset" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}

	if err := ClearManifest(path); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected manifest to be removed")
	}
	// Clearing twice is fine.
	if err := ClearManifest(path); err != nil {
		t.Errorf("Second clear failed: %v", err)
	}
}

func TestNotifySendsEvent(t *testing.T) {
	var got struct {
		EventType     string `json:"event_type"`
		ClientPayload struct {
			Files []Entry `json:"files"`
		} `json:"client_payload"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Bad dispatch body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(Options{
		Owner:     "tomopigraphy",
		Repo:      "photo-site",
		Token:     "test-token",
		EventType: "process-uploads",
		BaseURL:   srv.URL,
	})

	entries := []Entry{
		{S3Key: "originals/2025/11/a.jpg", FileName: "a.jpg", FileSize: 1},
		{S3Key: "originals/2025/11/b.jpg", FileName: "b.jpg", FileSize: 2},
	}
	if err := c.Notify(context.Background(), entries); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if got.EventType != "process-uploads" {
		t.Errorf("Expected event_type process-uploads, got %s", got.EventType)
	}
	if len(got.ClientPayload.Files) != 2 {
		t.Errorf("Expected 2 files in payload, got %d", len(got.ClientPayload.Files))
	}
	if auth != "token test-token" {
		t.Errorf("Unexpected Authorization header: %s", auth)
	}
}

func TestNotifyRejectsEmpty(t *testing.T) {
	c := NewClient(Options{Owner: "o", Repo: "r", Token: "t", EventType: "e"})
	if err := c.Notify(context.Background(), nil); err == nil {
		t.Error("Expected error dispatching empty manifest")
	}
}

func TestNotifySurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Options{Owner: "o", Repo: "r", Token: "bad", EventType: "e", BaseURL: srv.URL})
	if err := c.Notify(context.Background(), []Entry{{S3Key: "k"}}); err == nil {
		t.Error("Expected error for 401 response")
	}
}
