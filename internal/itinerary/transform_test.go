package itinerary

import (
	"testing"
	"time"

	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_DayNumbering(t *testing.T) {
	params := TransformParams{
		Days: []domain.BuilderDay{
			{Day: 1}, {Day: 2}, {Day: 3}, {Day: 4},
		},
	}

	data := Transform(params)

	require.Len(t, data.Itinerary, 4)
	for i, day := range data.Itinerary {
		assert.Equal(t, i+1, day.Day)
	}
}

func TestTransform_Dates(t *testing.T) {
	t.Run("start date advances per day", func(t *testing.T) {
		start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
		params := TransformParams{
			StartDate: &start,
			Days:      []domain.BuilderDay{{Day: 1}, {Day: 2}, {Day: 3}},
		}

		data := Transform(params)

		assert.Equal(t, start, data.Itinerary[0].Date)
		assert.Equal(t, start.AddDate(0, 0, 1), data.Itinerary[1].Date)
		assert.Equal(t, start.AddDate(0, 0, 2), data.Itinerary[2].Date)
	})

	t.Run("missing start date falls back to now", func(t *testing.T) {
		before := time.Now()
		data := Transform(TransformParams{Days: []domain.BuilderDay{{Day: 1}}})
		after := time.Now()

		date := data.Itinerary[0].Date
		assert.False(t, date.Before(before))
		assert.False(t, date.After(after))
	})
}

func TestTransform_ActivityTimes(t *testing.T) {
	tests := []struct {
		moment string
		want   string
	}{
		{"Morning", "09:00"},
		{"Afternoon", "14:00"},
		{"Evening", "18:00"},
		{"Half Day", "09:00"},
		{"Full Day", "09:00"},
		{"Night", "20:00"},
	}

	for _, tt := range tests {
		t.Run(tt.moment, func(t *testing.T) {
			params := TransformParams{
				Days: []domain.BuilderDay{
					{Day: 1, Activities: []domain.Activity{{Name: "Game drive", Moment: tt.moment}}},
				},
			}

			data := Transform(params)

			assert.Equal(t, tt.want, data.Itinerary[0].Activities[0].Time)
		})
	}

	t.Run("unknown moment uses 8 plus activity index", func(t *testing.T) {
		params := TransformParams{
			Days: []domain.BuilderDay{
				{Day: 1, Activities: []domain.Activity{
					{Name: "First", Moment: "Sunrise"},
					{Name: "Second", Moment: "Whenever"},
					{Name: "Third", Moment: ""},
				}},
			},
		}

		data := Transform(params)

		acts := data.Itinerary[0].Activities
		assert.Equal(t, "08:00", acts[0].Time)
		assert.Equal(t, "09:00", acts[1].Time)
		assert.Equal(t, "10:00", acts[2].Time)
	})
}

func TestTransform_DestinationAndTitle(t *testing.T) {
	destinations := map[string]DestinationInfo{
		"dest-serengeti": {Name: "Serengeti National Park"},
	}

	t.Run("resolved destination drives the title", func(t *testing.T) {
		params := TransformParams{
			Days:         []domain.BuilderDay{{Day: 1, Destination: "dest-serengeti"}},
			Destinations: destinations,
		}

		data := Transform(params)

		assert.Equal(t, "Serengeti National Park", data.Itinerary[0].Destination)
		assert.Equal(t, "Explore Serengeti National Park", data.Itinerary[0].Title)
	})

	t.Run("unresolved reference falls back to the raw string", func(t *testing.T) {
		params := TransformParams{
			Days:         []domain.BuilderDay{{Day: 1, Destination: "dest-unknown"}},
			Destinations: destinations,
		}

		data := Transform(params)

		assert.Equal(t, "dest-unknown", data.Itinerary[0].Destination)
		assert.Equal(t, "Explore dest-unknown", data.Itinerary[0].Title)
	})

	t.Run("no destination uses first activity name", func(t *testing.T) {
		params := TransformParams{
			Days: []domain.BuilderDay{
				{Day: 1, Activities: []domain.Activity{{Name: "Gorilla trekking"}}},
			},
		}

		data := Transform(params)

		assert.Equal(t, "", data.Itinerary[0].Destination)
		assert.Equal(t, "Gorilla trekking", data.Itinerary[0].Title)
	})

	t.Run("bare day falls back to day number", func(t *testing.T) {
		params := TransformParams{
			Days: []domain.BuilderDay{{Day: 1}, {Day: 2}},
		}

		data := Transform(params)

		assert.Equal(t, "Day 1", data.Itinerary[0].Title)
		assert.Equal(t, "Day 2", data.Itinerary[1].Title)
	})
}

func TestTransform_AccommodationLabels(t *testing.T) {
	accommodations := map[string]AccommodationInfo{
		"acc-lodge": {Name: "Sanctuary Lodge"},
	}

	params := TransformParams{
		Days: []domain.BuilderDay{
			{Day: 1, Accommodation: "acc-lodge"},
			{Day: 2, Accommodation: "acc-missing"},
			{Day: 3},
			{Day: 4},
		},
		Accommodations: accommodations,
	}

	data := Transform(params)

	assert.Equal(t, "Sanctuary Lodge", data.Itinerary[0].Accommodation)
	assert.Equal(t, "acc-missing", data.Itinerary[1].Accommodation)
	assert.Equal(t, "To be confirmed", data.Itinerary[2].Accommodation)
	assert.Equal(t, "Last day, no accommodation", data.Itinerary[3].Accommodation)
}

func TestTransform_Meals(t *testing.T) {
	params := TransformParams{
		Days: []domain.BuilderDay{
			{Day: 1, Breakfast: true, Dinner: true},
			{Day: 2, Breakfast: true, Lunch: true, Dinner: true},
			{Day: 3},
		},
	}

	data := Transform(params)

	assert.Equal(t, "Breakfast, Dinner", data.Itinerary[0].Meals)
	assert.Equal(t, "Breakfast, Lunch, Dinner", data.Itinerary[1].Meals)
	assert.Equal(t, "None", data.Itinerary[2].Meals)
}

func TestTransform_AccommodationList(t *testing.T) {
	accommodations := map[string]AccommodationInfo{
		"acc-lodge": {Name: "Sanctuary Lodge", ImageURL: "https://img/lodge.jpg"},
		"acc-camp":  {Name: "Bush Camp"},
	}

	params := TransformParams{
		Days: []domain.BuilderDay{
			{Day: 1, Accommodation: "acc-lodge"},
			{Day: 2, Accommodation: "acc-lodge"},
			{Day: 3, Accommodation: "acc-missing"},
			{Day: 4, Accommodation: "acc-camp"},
		},
		Accommodations: accommodations,
	}

	data := Transform(params)

	// Same reference twice yields one entry; unresolved references are skipped.
	require.Len(t, data.Accommodations, 2)
	assert.Equal(t, "acc-lodge", data.Accommodations[0].Ref)
	assert.Equal(t, "Sanctuary Lodge", data.Accommodations[0].Name)
	assert.Equal(t, "acc-camp", data.Accommodations[1].Ref)
}

func TestTransform_Pricing(t *testing.T) {
	params := TransformParams{
		TravelerGroups: []domain.TravelerGroup{{ID: "adults", Count: 2}},
		PricingRows:    []domain.PricingRow{{ID: "adults", Count: 2, UnitPrice: 500}},
	}

	data := Transform(params)

	assert.Equal(t, "$1,000", data.Pricing.Total)
	assert.Equal(t, "$500", data.Pricing.PerPerson)
	assert.Equal(t, "USD", data.Pricing.Currency)
}

func TestTransform_MapData(t *testing.T) {
	destinations := map[string]DestinationInfo{
		"dest-serengeti": {Name: "Serengeti National Park", Latitude: "-2.3333", Longitude: "34.8333"},
		"dest-nocoords":  {Name: "Mystery Spot"},
		"dest-badcoords": {Name: "Broken", Latitude: "north", Longitude: "34.0"},
		"dest-ngoro":     {Name: "Ngorongoro Crater", Latitude: "-3.2", Longitude: "35.5"},
	}

	params := TransformParams{
		Days: []domain.BuilderDay{
			{Day: 1, Destination: "dest-serengeti"},
			{Day: 2, Destination: "dest-serengeti"},
			{Day: 3, Destination: "dest-nocoords"},
			{Day: 4, Destination: "dest-badcoords"},
			{Day: 5, Destination: "dest-ngoro"},
		},
		Destinations: destinations,
		StartCity:    "kilimanjaro",
		EndCity:      "Zanzibar",
	}

	data := Transform(params)

	require.Len(t, data.Map.Locations, 2)
	assert.Equal(t, "Serengeti National Park", data.Map.Locations[0].Name)
	assert.InDelta(t, -2.3333, data.Map.Locations[0].Lat, 0.0001)
	assert.Equal(t, "Ngorongoro Crater", data.Map.Locations[1].Name)

	require.NotNil(t, data.Map.Start)
	assert.Equal(t, "Kilimanjaro Airport, Tanzania", data.Map.Start.Name)
	require.NotNil(t, data.Map.End)
	assert.Equal(t, "Zanzibar, Tanzania", data.Map.End.Name)
}

func TestTransform_MapStartEndUnmatched(t *testing.T) {
	data := Transform(TransformParams{StartCity: "Atlantis", EndCity: ""})

	assert.Nil(t, data.Map.Start)
	assert.Nil(t, data.Map.End)
}

func TestTransform_Location(t *testing.T) {
	t.Run("from first day destination", func(t *testing.T) {
		params := TransformParams{
			Days: []domain.BuilderDay{{Day: 1, Destination: "dest-1"}},
			Destinations: map[string]DestinationInfo{
				"dest-1": {Name: "Chobe National Park"},
			},
		}

		assert.Equal(t, "botswana", Transform(params).Location)
	})

	t.Run("falls back to title", func(t *testing.T) {
		params := TransformParams{Title: "Zanzibar Honeymoon"}

		assert.Equal(t, "tanzania", Transform(params).Location)
	})

	t.Run("default", func(t *testing.T) {
		assert.Equal(t, "rwanda", Transform(TransformParams{Title: "Great Apes Adventure"}).Location)
	})
}

func TestTransform_DurationAndSubtitle(t *testing.T) {
	t.Run("multi-day", func(t *testing.T) {
		params := TransformParams{
			Days:       []domain.BuilderDay{{Day: 1}, {Day: 2}, {Day: 3}, {Day: 4}, {Day: 5}},
			ClientName: "The Johnsons",
		}

		data := Transform(params)

		assert.Equal(t, "5 Days / 4 Nights", data.Duration)
		assert.Equal(t, "Prepared for The Johnsons", data.Subtitle)
	})

	t.Run("single day", func(t *testing.T) {
		data := Transform(TransformParams{Days: []domain.BuilderDay{{Day: 1}}})

		assert.Equal(t, "1 Day", data.Duration)
		assert.Equal(t, "", data.Subtitle)
	})
}

// Transform must produce a fully-populated result for entirely empty input.
func TestTransform_EmptyInput(t *testing.T) {
	data := Transform(TransformParams{})

	assert.Empty(t, data.Itinerary)
	assert.Empty(t, data.Accommodations)
	assert.Equal(t, "$0", data.Pricing.Total)
	assert.Equal(t, "$0", data.Pricing.PerPerson)
	assert.Equal(t, "USD", data.Pricing.Currency)
	assert.Equal(t, "rwanda", data.Location)
	assert.NotEmpty(t, data.ImportantNotes)
}
