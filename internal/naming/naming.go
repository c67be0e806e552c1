// Package naming derives artwork identifiers and object storage keys from
// source file names and dates. All functions are pure.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ResponsiveWidths is the fixed candidate list for responsive renditions,
// ascending. Widths larger than the source image are skipped, never upscaled.
var ResponsiveWidths = []int{640, 768, 1024, 1280, 1536, 1920, 2560}

// Sanitize maps an arbitrary base file name onto the URL- and key-safe
// alphabet [A-Za-z0-9._-]. Every run of disallowed characters collapses to a
// single underscore, and leading/trailing underscores are trimmed. Sanitizing
// an already-sanitized name returns it unchanged.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSep := false
	for _, r := range name {
		if allowed(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		} else {
			pendingSep = true
		}
	}

	return b.String()
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}

// DeriveID builds the artwork id "{YYYYMMDD}_{sanitizedBase}" from a file name
// and the chosen date. The extension is stripped before sanitizing, and a
// leading date prefix already present in the base is dropped so ids never
// carry the date twice.
func DeriveID(fileName string, date time.Time) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if _, ok := LeadingDate(base); ok && len(base) > 9 {
		base = base[9:]
	}
	return date.Format("20060102") + "_" + Sanitize(base)
}

// LeadingDate extracts a "YYYYMMDD_" prefix from a file name, the convention
// used by camera exports and by ids produced here. The second return value is
// false when no valid prefix is present.
func LeadingDate(fileName string) (time.Time, bool) {
	base := filepath.Base(fileName)
	if len(base) < 9 || base[8] != '_' {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", base[:8])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Keys holds the storage keys for one artwork's renditions.
type Keys struct {
	Original   string
	Thumbnail  string
	WebP       string
	Responsive map[int]string
}

// ObjectKeys derives the storage keys for an artwork. Keys are structured as
// {category}/{year}/{month}/{id}{suffix}; responsive keys embed the target
// width.
func ObjectKeys(id, ext string, date time.Time) Keys {
	base := fmt.Sprintf("%d/%02d", date.Year(), int(date.Month()))

	k := Keys{
		Original:   fmt.Sprintf("originals/%s/%s%s", base, id, ext),
		Thumbnail:  fmt.Sprintf("thumbnails/%s/%s_thumb.jpg", base, id),
		WebP:       fmt.Sprintf("webp/%s/%s.webp", base, id),
		Responsive: make(map[int]string, len(ResponsiveWidths)),
	}
	for _, w := range ResponsiveWidths {
		k.Responsive[w] = fmt.Sprintf("responsive/%s/%s_%dw.jpg", base, id, w)
	}
	return k
}

// OriginalKey derives just the originals key for a raw file name, used when
// presigning direct-to-store uploads before an id exists. The date comes from
// the file name's leading date when present, otherwise from now.
func OriginalKey(fileName string, now time.Time) string {
	date, ok := LeadingDate(fileName)
	if !ok {
		date = now
	}
	return fmt.Sprintf("originals/%d/%02d/%s", date.Year(), int(date.Month()), filepath.Base(fileName))
}
