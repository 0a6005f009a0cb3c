// Package report provides themed HTML rendering and PDF generation for
// travel proposals.
//
// This package defines a Generator interface implemented by the themed HTML
// generator, along with common helpers for formatting and styling itinerary
// documents in the Kitasuro brand style.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kitasuro/kitasuro/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// RenderOptions controls per-document rendering behavior.
type RenderOptions struct {
	// Watermark injects the plan-upgrade banner into the rendered document.
	// Set from the organization's plan; paid plans with the no-watermark
	// entitlement render clean documents.
	Watermark bool
}

// Generator defines the interface for itinerary document generators.
type Generator interface {
	// Generate creates a PDF document and writes it to the provided writer.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, data *domain.ItineraryData, opts RenderOptions, w io.Writer) (int64, error)
}

// =============================================================================
// Theme Palettes
// =============================================================================

// ThemePalette defines the color palette for a rendered document.
type ThemePalette struct {
	Primary    string // Headings and section rules
	Accent     string // Highlights and pricing
	TextDark   string // Primary text
	TextMuted  string // Secondary text
	Border     string // Borders and dividers
	Background string // Light background
}

// themePalettes maps themes to their palettes.
var themePalettes = map[domain.Theme]ThemePalette{
	domain.ThemeClassic: {
		Primary:    "#1E3A5F",
		Accent:     "#C8963E",
		TextDark:   "#1F2937",
		TextMuted:  "#6B7280",
		Border:     "#E5E7EB",
		Background: "#F9FAFB",
	},
	domain.ThemeSafari: {
		Primary:    "#4A3B2A",
		Accent:     "#B5651D",
		TextDark:   "#2C2418",
		TextMuted:  "#7A6E5D",
		Border:     "#E0D8C8",
		Background: "#FAF6EE",
	},
	domain.ThemeLuxury: {
		Primary:    "#14181D",
		Accent:     "#A88A4C",
		TextDark:   "#1A1A1A",
		TextMuted:  "#8A8A8A",
		Border:     "#D9D4C8",
		Background: "#FCFBF8",
	},
}

// PaletteFor returns the palette for a theme, falling back to classic for
// unrecognized values.
func PaletteFor(theme domain.Theme) ThemePalette {
	if p, ok := themePalettes[theme]; ok {
		return p
	}
	return themePalettes[domain.ThemeClassic]
}

// =============================================================================
// Text Formatting Helpers
// =============================================================================

var titleCaser = cases.Title(language.English)

// TitleCase converts a string to title case for headings.
func TitleCase(s string) string {
	return titleCaser.String(s)
}

// TruncateText truncates text to a maximum length, adding ellipsis if needed.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return text[:maxLen]
	}
	return text[:maxLen-3] + "..."
}

// FormatDate formats a date for display in documents.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// FormatDateTime formats a datetime for display in documents.
func FormatDateTime(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}

// =============================================================================
// Image Download
// =============================================================================

// ImageData holds downloaded image data for embedding in documents.
type ImageData struct {
	Data        []byte
	ContentType string
}

// ImageDownloader abstracts image fetching for document generation.
// This allows testing rendering without network I/O.
type ImageDownloader interface {
	Download(ctx context.Context, url string) (*ImageData, error)
}

// HTTPImageDownloader fetches images over HTTP.
type HTTPImageDownloader struct {
	client *http.Client
}

// NewHTTPImageDownloader creates an ImageDownloader that fetches images over HTTP.
func NewHTTPImageDownloader() *HTTPImageDownloader {
	return &HTTPImageDownloader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Download fetches an image from a URL and returns its data.
// Returns nil, nil if the URL is empty.
func (d *HTTPImageDownloader) Download(ctx context.Context, url string) (*ImageData, error) {
	if url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg" // Default fallback
	}

	return &ImageData{
		Data:        buf.Bytes(),
		ContentType: contentType,
	}, nil
}
