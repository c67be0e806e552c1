// Package describe generates a title and description for an artwork from its
// image using a vision-capable model.
package describe

import "context"

// Description is the generated metadata for one image.
type Description struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Provider defines the interface for a vision model provider.
type Provider interface {
	Describe(ctx context.Context, imageData []byte, mimeType string) (Description, error)
}
