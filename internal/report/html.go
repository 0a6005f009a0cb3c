package report

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/kitasuro/kitasuro/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// =============================================================================
// Themed HTML Generator
// =============================================================================

// ThemedHTMLGenerator renders an itinerary through a theme template and
// converts the result to PDF with an external converter.
type ThemedHTMLGenerator struct {
	templates  *template.Template
	converter  Converter
	downloader ImageDownloader
	logger     *slog.Logger
}

var _ Generator = (*ThemedHTMLGenerator)(nil)

// NewThemedHTMLGenerator creates a generator with the embedded theme templates.
func NewThemedHTMLGenerator(converter Converter, downloader ImageDownloader, logger *slog.Logger) (*ThemedHTMLGenerator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if converter == nil {
		converter = NewWeasyPrintConverter()
	}
	if downloader == nil {
		downloader = NewHTTPImageDownloader()
	}

	tmpl, err := template.New("themes").Funcs(template.FuncMap{
		"formatDate": FormatDate,
		"titleCase":  TitleCase,
		"truncate":   TruncateText,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse theme templates: %w", err)
	}

	return &ThemedHTMLGenerator{
		templates:  tmpl,
		converter:  converter,
		downloader: downloader,
		logger:     logger,
	}, nil
}

// templateData is the payload handed to theme templates.
type templateData struct {
	Data        *domain.ItineraryData
	Palette     ThemePalette
	Watermark   bool
	HeroDataURI template.URL
	GeneratedAt time.Time
}

// RenderHTML renders the itinerary through its theme template.
func (g *ThemedHTMLGenerator) RenderHTML(ctx context.Context, data *domain.ItineraryData, opts RenderOptions) ([]byte, error) {
	name := templateName(data.Theme)

	payload := templateData{
		Data:        data,
		Palette:     PaletteFor(data.Theme),
		Watermark:   opts.Watermark,
		GeneratedAt: time.Now(),
	}

	// Embed the hero image as a data URI so the document renders without
	// network access. A failed download degrades to no hero, not an error.
	if data.HeroImage != "" {
		imgData, err := g.downloader.Download(ctx, data.HeroImage)
		if err != nil {
			g.logger.Warn("failed to download hero image for embedding",
				"url", data.HeroImage,
				"error", err,
			)
		} else if imgData != nil {
			payload.HeroDataURI = template.URL(fmt.Sprintf("data:%s;base64,%s",
				imgData.ContentType,
				base64.StdEncoding.EncodeToString(imgData.Data),
			))
		}
	}

	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, name, payload); err != nil {
		return nil, fmt.Errorf("render theme %q: %w", name, err)
	}

	g.logger.Debug("itinerary HTML rendered",
		"theme", data.Theme,
		"html_size", buf.Len(),
		"day_count", len(data.Itinerary),
	)

	return buf.Bytes(), nil
}

// Generate renders the itinerary HTML and converts it to PDF.
func (g *ThemedHTMLGenerator) Generate(ctx context.Context, data *domain.ItineraryData, opts RenderOptions, w io.Writer) (int64, error) {
	html, err := g.RenderHTML(ctx, data, opts)
	if err != nil {
		return 0, err
	}

	var outBuf bytes.Buffer
	if err := g.converter.Convert(ctx, html, &outBuf); err != nil {
		return 0, fmt.Errorf("convert to pdf: %w", err)
	}

	n, err := w.Write(outBuf.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("write output: %w", err)
	}

	g.logger.Info("itinerary PDF generated",
		"theme", data.Theme,
		"size_bytes", n,
		"day_count", len(data.Itinerary),
	)

	return int64(n), nil
}

// templateName maps a theme to its embedded template file.
// Unrecognized themes fall back to classic.
func templateName(theme domain.Theme) string {
	switch theme {
	case domain.ThemeSafari:
		return "safari.html"
	case domain.ThemeLuxury:
		return "luxury.html"
	default:
		return "classic.html"
	}
}
