// Package render derives the fixed set of renditions for a source image:
// a thumbnail, a full-resolution WebP, and responsive-width JPEGs.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/tomopigraphy/gallery/internal/naming"
)

// ErrUnsupportedImage is returned when the source bytes cannot be decoded
// (corrupt file or unknown codec). Fatal for the one artwork, not the batch.
var ErrUnsupportedImage = errors.New("unsupported image")

// ThumbPreset selects the thumbnail geometry. The two call sites expect
// different aspect behavior, so the presets stay distinct.
type ThumbPreset int

const (
	// ThumbFit300 scales to fit inside 300x300, preserving aspect ratio.
	ThumbFit300 ThumbPreset = iota
	// ThumbCover400 crops to fill 400x400 from the center.
	ThumbCover400
)

// Quality holds the encoder settings. Zero values fall back to the defaults
// the site has always used.
type Quality struct {
	JPEG      int // responsive JPEGs, default 85
	Thumbnail int // thumbnail JPEG, default 80
	WebP      int // full-size WebP, default 85
}

func (q Quality) withDefaults() Quality {
	if q.JPEG == 0 {
		q.JPEG = 85
	}
	if q.Thumbnail == 0 {
		q.Thumbnail = 80
	}
	if q.WebP == 0 {
		q.WebP = 85
	}
	return q
}

// Renditions is the output of one derivation: encoded buffers plus the
// measured dimensions of the original.
type Renditions struct {
	Thumbnail  []byte
	WebP       []byte
	Responsive map[int][]byte // keyed by width, only widths <= source width
	Width      int
	Height     int
}

// Generator derives renditions. It is stateless apart from quality settings;
// identical input bytes produce identical output.
type Generator struct {
	quality Quality
}

// NewGenerator returns a Generator with the given quality settings.
func NewGenerator(q Quality) *Generator {
	return &Generator{quality: q.withDefaults()}
}

// Derive decodes the source and produces the full rendition set. Candidate
// responsive widths wider than the source are skipped.
func (g *Generator) Derive(src []byte, preset ThumbPreset) (*Renditions, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	out := &Renditions{
		Responsive: make(map[int][]byte),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	}

	if out.Thumbnail, err = g.encodeThumbnail(img, preset); err != nil {
		return nil, err
	}
	if out.WebP, err = g.encodeWebP(img); err != nil {
		return nil, err
	}

	for _, width := range naming.ResponsiveWidths {
		if width > out.Width {
			continue
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		buf, err := encodeJPEG(resized, g.quality.JPEG)
		if err != nil {
			return nil, fmt.Errorf("encode %dw rendition: %w", width, err)
		}
		out.Responsive[width] = buf
	}

	return out, nil
}

func (g *Generator) encodeThumbnail(img image.Image, preset ThumbPreset) ([]byte, error) {
	var thumb image.Image
	switch preset {
	case ThumbCover400:
		thumb = imaging.Fill(img, 400, 400, imaging.Center, imaging.Lanczos)
	default:
		thumb = imaging.Fit(img, 300, 300, imaging.Lanczos)
	}

	buf, err := encodeJPEG(thumb, g.quality.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf, nil
}

func (g *Generator) encodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(g.quality.WebP)}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
