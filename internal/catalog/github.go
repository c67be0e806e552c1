package catalog

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tomopigraphy/gallery/internal/gallery"
)

// GitHubStore keeps the catalog as a file in a GitHub repository, read and
// written through the contents API. The blob sha from a read doubles as the
// optimistic-concurrency token: a PUT with a stale sha is rejected by GitHub
// and surfaces as ErrConflict.
type GitHubStore struct {
	owner      string
	repo       string
	branch     string
	path       string
	token      string
	baseURL    string
	httpClient *http.Client
}

// GitHubOptions configures a GitHubStore. Path is the repo-relative file
// path, e.g. "docs/data/artworks.json".
type GitHubOptions struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
	Token  string
	// BaseURL overrides the API endpoint in tests.
	BaseURL string
}

// NewGitHubStore returns a contents-API backed store.
func NewGitHubStore(opts GitHubOptions) *GitHubStore {
	base := opts.BaseURL
	if base == "" {
		base = "https://api.github.com"
	}
	branch := opts.Branch
	if branch == "" {
		branch = "main"
	}
	return &GitHubStore{
		owner:   opts.Owner,
		repo:    opts.Repo,
		branch:  branch,
		path:    opts.Path,
		token:   opts.Token,
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *GitHubStore) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.baseURL, g.owner, g.repo, g.path)
}

func (g *GitHubStore) Load(ctx context.Context) (*gallery.Catalog, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.contentsURL()+"?ref="+g.branch, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build contents request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch catalog from GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return gallery.NewCatalog(), "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("GitHub contents API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		SHA     string `json:"sha"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode contents response: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(stripNewlines(payload.Content))
	if err != nil {
		return nil, "", fmt.Errorf("decode catalog content: %w", err)
	}

	var doc gallery.Catalog
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", fmt.Errorf("parse catalog: %w", err)
	}
	if doc.Artworks == nil {
		doc.Artworks = []gallery.Artwork{}
	}
	return &doc, payload.SHA, nil
}

func (g *GitHubStore) Save(ctx context.Context, doc *gallery.Catalog, revision string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	body := map[string]any{
		"message": fmt.Sprintf("Update catalog (%d artworks)", doc.TotalCount),
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  g.branch,
	}
	if revision != "" {
		body["sha"] = revision
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode commit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build commit request: %w", err)
	}
	g.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("commit catalog to GitHub: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// GitHub answers 409 (or 422 for a missing sha on an existing
		// file) when the blob changed since our read.
		return fmt.Errorf("%w: %s", ErrConflict, g.path)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub contents API returned status %d: %s", resp.StatusCode, string(respBody))
	}
}

func (g *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// stripNewlines removes the line breaks GitHub inserts into base64 content.
func stripNewlines(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			buf = append(buf, s[i])
		}
	}
	return string(buf)
}
