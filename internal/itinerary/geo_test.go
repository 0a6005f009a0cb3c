package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferCountry(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"explicit tanzania", "Tanzania Highlights", "tanzania"},
		{"serengeti implies tanzania", "Serengeti National Park", "tanzania"},
		{"kilimanjaro implies tanzania", "Mount Kilimanjaro Trek", "tanzania"},
		{"ngorongoro implies tanzania", "Ngorongoro Crater", "tanzania"},
		{"zanzibar implies tanzania", "Zanzibar Beach Escape", "tanzania"},
		{"tarangire implies tanzania", "Tarangire Safari", "tanzania"},
		{"explicit botswana", "Classic Botswana", "botswana"},
		{"okavango implies botswana", "Okavango Delta", "botswana"},
		{"chobe implies botswana", "Chobe River Front", "botswana"},
		{"default rwanda", "Volcanoes Gorilla Trek", "rwanda"},
		{"empty defaults to rwanda", "", "rwanda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCountry(tt.in))
		})
	}
}

func TestMatchCity(t *testing.T) {
	t.Run("exact value", func(t *testing.T) {
		pt := MatchCity("kigali")
		require.NotNil(t, pt)
		assert.Equal(t, "Kigali, Rwanda", pt.Name)
		assert.InDelta(t, -1.9441, pt.Lat, 0.0001)
	})

	t.Run("exact label case-insensitive", func(t *testing.T) {
		pt := MatchCity("kigali, rwanda")
		require.NotNil(t, pt)
		assert.Equal(t, "Kigali, Rwanda", pt.Name)
	})

	t.Run("substring of label", func(t *testing.T) {
		pt := MatchCity("Zanzibar")
		require.NotNil(t, pt)
		assert.Equal(t, "Zanzibar, Tanzania", pt.Name)
	})

	t.Run("label substring of input", func(t *testing.T) {
		pt := MatchCity("Fly into Maun, Botswana via Johannesburg")
		require.NotNil(t, pt)
		assert.Equal(t, "Maun, Botswana", pt.Name)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, MatchCity("Reykjavik"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, MatchCity(""))
	})
}
