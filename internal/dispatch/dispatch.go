// Package dispatch handles the asynchronous ingestion path: a manifest of
// objects already uploaded directly to the store, and the notification that
// asks the remote automation hook to process them.
//
// The notification is at-least-once: the manifest is only cleared after the
// hook accepts the event, so a failed send can be retried by rerunning the
// command. The consumer upserts by artwork id, which makes redelivery safe.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Entry describes one uploaded object awaiting processing.
type Entry struct {
	S3Key       string `json:"s3Key"`
	FileName    string `json:"fileName"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileSize    int64  `json:"fileSize"`
	Date        string `json:"date"` // ISO YYYY-MM-DD
}

// LoadManifest reads the pending-uploads manifest. A missing file means
// nothing is pending.
func LoadManifest(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return entries, nil
}

// SaveManifest writes the manifest, replacing any previous content.
func SaveManifest(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// AppendManifest adds one entry to the manifest file.
func AppendManifest(path string, e Entry) error {
	entries, err := LoadManifest(path)
	if err != nil {
		return err
	}
	return SaveManifest(path, append(entries, e))
}

// ClearManifest removes the manifest file after a successful dispatch.
func ClearManifest(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear manifest: %w", err)
	}
	return nil
}

// Client sends repository_dispatch events to the automation hook.
type Client struct {
	owner      string
	repo       string
	token      string
	eventType  string
	baseURL    string
	httpClient *http.Client
}

// Options configures a dispatch Client.
type Options struct {
	Owner     string
	Repo      string
	Token     string
	EventType string
	// BaseURL overrides the API endpoint in tests.
	BaseURL string
}

// NewClient returns a dispatch client for one repository hook.
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = "https://api.github.com"
	}
	return &Client{
		owner:     opts.Owner,
		repo:      opts.Repo,
		token:     opts.Token,
		eventType: opts.EventType,
		baseURL:   base,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Notify sends one event carrying all pending entries. Acceptance only means
// the hook received the event; between now and the hook finishing, the
// catalog does not yet reflect these uploads.
func (c *Client) Notify(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("nothing to dispatch")
	}

	payload, err := json.Marshal(map[string]any{
		"event_type": c.eventType,
		"client_payload": map[string]any{
			"files": entries,
		},
	})
	if err != nil {
		return fmt.Errorf("encode dispatch payload: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/dispatches", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("dispatch returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
