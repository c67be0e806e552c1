// Package gallery defines the artwork catalog data model.
package gallery

import "time"

// Dimensions holds the pixel size of an original image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Artwork is one entry in the catalog. URLs point at the stored renditions;
// the responsive map is keyed by pixel width and only contains widths that do
// not exceed the original's width.
type Artwork struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        string         `json:"date"` // ISO YYYY-MM-DD
	Year        int            `json:"year"`
	Month       int            `json:"month"`
	Original    string         `json:"original"`
	Thumbnail   string         `json:"thumbnail"`
	WebP        string         `json:"webp"`
	Responsive  map[int]string `json:"responsive"`
	Dimensions  Dimensions     `json:"dimensions"`
	FileSize    int64          `json:"fileSize"`
}

// Catalog is the single JSON document indexing all artworks, newest first.
type Catalog struct {
	Artworks    []Artwork  `json:"artworks"`
	TotalCount  int        `json:"totalCount"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// NewCatalog returns an empty, zero-count catalog document.
func NewCatalog() *Catalog {
	return &Catalog{Artworks: []Artwork{}}
}

// Upsert inserts an artwork keyed by id. A matching id is replaced in place,
// preserving its position; a new id is inserted at the front (newest first).
// TotalCount and LastUpdated are refreshed. Returns true when an existing
// record was replaced.
func (c *Catalog) Upsert(a Artwork, now time.Time) bool {
	replaced := false
	for i := range c.Artworks {
		if c.Artworks[i].ID == a.ID {
			c.Artworks[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		c.Artworks = append([]Artwork{a}, c.Artworks...)
	}

	c.TotalCount = len(c.Artworks)
	c.LastUpdated = &now
	return replaced
}

// Find returns the artwork with the given id, or nil.
func (c *Catalog) Find(id string) *Artwork {
	for i := range c.Artworks {
		if c.Artworks[i].ID == id {
			return &c.Artworks[i]
		}
	}
	return nil
}
