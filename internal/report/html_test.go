package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitasuro/kitasuro/internal/domain"
)

// stubDownloader returns fixed image data without network I/O.
type stubDownloader struct {
	data *ImageData
	err  error
}

func (d *stubDownloader) Download(ctx context.Context, url string) (*ImageData, error) {
	return d.data, d.err
}

func testItinerary(theme domain.Theme) *domain.ItineraryData {
	return &domain.ItineraryData{
		Title:      "Rwanda Highlights",
		Subtitle:   "Prepared for Amahoro Travel",
		ClientName: "Amahoro Travel",
		Duration:   "3 Days / 2 Nights",
		Location:   "rwanda",
		Theme:      theme,
		Itinerary: []domain.ItineraryDay{
			{
				Day:           1,
				Title:         "Explore Kigali",
				Date:          time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
				Destination:   "Kigali",
				Accommodation: "Kigali Serena Hotel",
				Meals:         "Breakfast, Dinner",
				Activities: []domain.ItineraryActivity{
					{Time: "09:00", Name: "Genocide Memorial visit"},
					{Time: "14:00", Name: "City tour", Location: "Kigali"},
				},
			},
		},
		Accommodations: []domain.ItineraryAccommodation{
			{Ref: "serena-kigali", Name: "Kigali Serena Hotel", Description: "City center hotel."},
		},
		Pricing:        domain.ItineraryPricing{Total: "$4,500", PerPerson: "$2,250", Currency: "USD"},
		Inclusions:     []string{"Airport transfers", "Park fees"},
		Exclusions:     []string{"International flights"},
		ImportantNotes: []string{"A valid passport is required."},
	}
}

func newTestGenerator(t *testing.T, dl ImageDownloader) *ThemedHTMLGenerator {
	t.Helper()
	gen, err := NewThemedHTMLGenerator(nil, dl, nil)
	require.NoError(t, err)
	return gen
}

func TestRenderHTML(t *testing.T) {
	gen := newTestGenerator(t, &stubDownloader{})

	t.Run("renders itinerary content", func(t *testing.T) {
		html, err := gen.RenderHTML(context.Background(), testItinerary(domain.ThemeClassic), RenderOptions{})
		require.NoError(t, err)

		out := string(html)
		assert.Contains(t, out, "Rwanda Highlights")
		assert.Contains(t, out, "Prepared for Amahoro Travel")
		assert.Contains(t, out, "3 Days / 2 Nights")
		assert.Contains(t, out, "September 14, 2026")
		assert.Contains(t, out, "09:00")
		assert.Contains(t, out, "Kigali Serena Hotel")
		assert.Contains(t, out, "$4,500")
		assert.Contains(t, out, "$2,250")
		assert.Contains(t, out, "Airport transfers")
		assert.Contains(t, out, "A valid passport is required.")
	})

	t.Run("location is title cased", func(t *testing.T) {
		html, err := gen.RenderHTML(context.Background(), testItinerary(domain.ThemeClassic), RenderOptions{})
		require.NoError(t, err)
		assert.Contains(t, string(html), "Rwanda")
	})

	t.Run("watermark banner toggles with options", func(t *testing.T) {
		data := testItinerary(domain.ThemeClassic)

		with, err := gen.RenderHTML(context.Background(), data, RenderOptions{Watermark: true})
		require.NoError(t, err)
		assert.Contains(t, string(with), "upgrade your plan")

		without, err := gen.RenderHTML(context.Background(), data, RenderOptions{Watermark: false})
		require.NoError(t, err)
		assert.NotContains(t, string(without), "upgrade your plan")
	})

	t.Run("each theme uses its palette", func(t *testing.T) {
		for _, theme := range []domain.Theme{domain.ThemeClassic, domain.ThemeSafari, domain.ThemeLuxury} {
			html, err := gen.RenderHTML(context.Background(), testItinerary(theme), RenderOptions{})
			require.NoError(t, err)
			assert.Contains(t, string(html), PaletteFor(theme).Primary, "theme %s", theme)
		}
	})

	t.Run("unknown theme falls back to classic", func(t *testing.T) {
		data := testItinerary(domain.Theme("retro"))
		html, err := gen.RenderHTML(context.Background(), data, RenderOptions{})
		require.NoError(t, err)
		assert.Contains(t, string(html), PaletteFor(domain.ThemeClassic).Primary)
	})
}

func TestRenderHTML_HeroImage(t *testing.T) {
	t.Run("hero embedded as data uri", func(t *testing.T) {
		gen := newTestGenerator(t, &stubDownloader{
			data: &ImageData{Data: []byte("fake-jpeg"), ContentType: "image/jpeg"},
		})

		data := testItinerary(domain.ThemeClassic)
		data.HeroImage = "https://files.example.com/hero.jpg"

		html, err := gen.RenderHTML(context.Background(), data, RenderOptions{})
		require.NoError(t, err)
		assert.Contains(t, string(html), "data:image/jpeg;base64,")
	})

	t.Run("download failure degrades to no hero", func(t *testing.T) {
		gen := newTestGenerator(t, &stubDownloader{err: assert.AnError})

		data := testItinerary(domain.ThemeClassic)
		data.HeroImage = "https://files.example.com/hero.jpg"

		html, err := gen.RenderHTML(context.Background(), data, RenderOptions{})
		require.NoError(t, err)
		assert.NotContains(t, string(html), "data:image/")
	})
}

func TestFormattingHelpers(t *testing.T) {
	t.Run("title case", func(t *testing.T) {
		assert.Equal(t, "Rwanda", TitleCase("rwanda"))
		assert.Equal(t, "South Africa", TitleCase("south africa"))
	})

	t.Run("truncate", func(t *testing.T) {
		assert.Equal(t, "short", TruncateText("short", 10))
		assert.Equal(t, "long te...", TruncateText("long text that keeps going", 10))
		assert.Equal(t, "ab", TruncateText("abcdef", 2))
	})

	t.Run("format date", func(t *testing.T) {
		d := time.Date(2026, 3, 7, 15, 4, 0, 0, time.UTC)
		assert.Equal(t, "March 7, 2026", FormatDate(d))
		assert.Equal(t, "March 7, 2026 at 3:04 PM", FormatDateTime(d))
	})
}
