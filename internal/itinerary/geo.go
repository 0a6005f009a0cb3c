package itinerary

import (
	"strings"

	"github.com/kitasuro/kitasuro/internal/domain"
)

// city is one entry in the static start/end city table. Value is the stable
// identifier stored on a proposal; Label is what agents type and see.
type city struct {
	Value string
	Label string
	Lat   float64
	Lng   float64
}

// cityTable covers the airports and gateway towns of the itineraries we sell.
var cityTable = []city{
	{Value: "kigali", Label: "Kigali, Rwanda", Lat: -1.9441, Lng: 30.0619},
	{Value: "arusha", Label: "Arusha, Tanzania", Lat: -3.3869, Lng: 36.6830},
	{Value: "kilimanjaro", Label: "Kilimanjaro Airport, Tanzania", Lat: -3.4298, Lng: 37.0745},
	{Value: "zanzibar", Label: "Zanzibar, Tanzania", Lat: -6.1659, Lng: 39.2026},
	{Value: "dar-es-salaam", Label: "Dar es Salaam, Tanzania", Lat: -6.7924, Lng: 39.2083},
	{Value: "maun", Label: "Maun, Botswana", Lat: -19.9833, Lng: 23.4167},
	{Value: "kasane", Label: "Kasane, Botswana", Lat: -17.7980, Lng: 25.1620},
	{Value: "gaborone", Label: "Gaborone, Botswana", Lat: -24.6282, Lng: 25.9231},
	{Value: "nairobi", Label: "Nairobi, Kenya", Lat: -1.2921, Lng: 36.8219},
	{Value: "entebbe", Label: "Entebbe, Uganda", Lat: 0.0512, Lng: 32.4637},
}

// MatchCity resolves a free-form start/end city string against the static
// city table. Matching is best-effort, first match wins: exact value, then
// exact label (case-insensitive), then substring in either direction.
// No match yields nil, never an error.
func MatchCity(value string) *domain.MapPoint {
	if value == "" {
		return nil
	}
	for _, c := range cityTable {
		if c.Value == value {
			return cityPoint(c)
		}
	}
	lower := strings.ToLower(value)
	for _, c := range cityTable {
		if strings.ToLower(c.Label) == lower {
			return cityPoint(c)
		}
	}
	for _, c := range cityTable {
		label := strings.ToLower(c.Label)
		if strings.Contains(label, lower) || strings.Contains(lower, label) {
			return cityPoint(c)
		}
	}
	return nil
}

func cityPoint(c city) *domain.MapPoint {
	return &domain.MapPoint{Name: c.Label, Lat: c.Lat, Lng: c.Lng}
}

// Country substring tables for InferCountry. Park and region names imply the
// country even when it is never spelled out.
var (
	tanzaniaHints = []string{"tanzania", "serengeti", "kilimanjaro", "ngorongoro", "zanzibar", "tarangire"}
	botswanaHints = []string{"botswana", "okavango", "chobe"}
)

// InferCountry guesses the trip's country label from a destination name or
// trip title. The default is "rwanda" when nothing matches; callers rely on
// always getting a non-empty label back.
func InferCountry(name string) string {
	lower := strings.ToLower(name)
	for _, hint := range tanzaniaHints {
		if strings.Contains(lower, hint) {
			return "tanzania"
		}
	}
	for _, hint := range botswanaHints {
		if strings.Contains(lower, hint) {
			return "botswana"
		}
	}
	return "rwanda"
}
