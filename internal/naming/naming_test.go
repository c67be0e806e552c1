package naming

import (
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean name unchanged",
			input:    "DSC03318",
			expected: "DSC03318",
		},
		{
			name:     "spaces collapse to underscore",
			input:    "sunset at the beach",
			expected: "sunset_at_the_beach",
		},
		{
			name:     "bracket runs collapse",
			input:    "photo (1) [edit]",
			expected: "photo_1_edit",
		},
		{
			name:     "shell metacharacters",
			input:    "a&b;c$d#e!f?g*h",
			expected: "a_b_c_d_e_f_g_h",
		},
		{
			name:     "leading and trailing stripped",
			input:    "  (draft)  ",
			expected: "draft",
		},
		{
			name:     "dots dashes underscores kept",
			input:    "IMG_2024-01.raw",
			expected: "IMG_2024-01.raw",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}

			// Idempotence: a sanitized name sanitizes to itself.
			if again := Sanitize(got); again != got {
				t.Errorf("Sanitize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestDeriveID(t *testing.T) {
	date := time.Date(2025, 11, 8, 14, 30, 0, 0, time.UTC)

	// A base name that already carries a date prefix does not get it twice.
	id := DeriveID("20251108_DSC03318.jpg", date)
	if id != "20251108_DSC03318" {
		t.Errorf("Expected 20251108_DSC03318, got %q", id)
	}

	id = DeriveID("DSC03318.jpg", date)
	if id != "20251108_DSC03318" {
		t.Errorf("Expected 20251108_DSC03318, got %q", id)
	}

	id = DeriveID("my photo (2).png", date)
	if id != "20251108_my_photo_2" {
		t.Errorf("Expected 20251108_my_photo_2, got %q", id)
	}
}

func TestLeadingDate(t *testing.T) {
	date, ok := LeadingDate("20251108_DSC03318.jpg")
	if !ok {
		t.Fatal("Expected leading date to parse")
	}
	if date.Year() != 2025 || date.Month() != 11 || date.Day() != 8 {
		t.Errorf("Expected 2025-11-08, got %v", date)
	}

	for _, name := range []string{"DSC03318.jpg", "2025_photo.jpg", "99999999_x.jpg", "short"} {
		if _, ok := LeadingDate(name); ok {
			t.Errorf("Expected no leading date for %q", name)
		}
	}
}

func TestObjectKeys(t *testing.T) {
	date := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	keys := ObjectKeys("20250302_DSC01", ".jpg", date)

	if keys.Original != "originals/2025/03/20250302_DSC01.jpg" {
		t.Errorf("Unexpected original key: %s", keys.Original)
	}
	if keys.Thumbnail != "thumbnails/2025/03/20250302_DSC01_thumb.jpg" {
		t.Errorf("Unexpected thumbnail key: %s", keys.Thumbnail)
	}
	if keys.WebP != "webp/2025/03/20250302_DSC01.webp" {
		t.Errorf("Unexpected webp key: %s", keys.WebP)
	}
	if len(keys.Responsive) != len(ResponsiveWidths) {
		t.Fatalf("Expected %d responsive keys, got %d", len(ResponsiveWidths), len(keys.Responsive))
	}
	if keys.Responsive[640] != "responsive/2025/03/20250302_DSC01_640w.jpg" {
		t.Errorf("Unexpected responsive key: %s", keys.Responsive[640])
	}
}

func TestOriginalKey(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	key := OriginalKey("20251108_DSC03318.jpg", now)
	if key != "originals/2025/11/20251108_DSC03318.jpg" {
		t.Errorf("Expected date from file name, got %s", key)
	}

	key = OriginalKey("holiday.jpg", now)
	if key != "originals/2026/01/holiday.jpg" {
		t.Errorf("Expected current date fallback, got %s", key)
	}
}
