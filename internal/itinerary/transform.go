// Package itinerary converts a proposal's builder state into the flat
// presentation model the themed renderers and the PDF pipeline consume.
//
// Transform is a pure function: it performs no I/O, holds no state between
// calls, and never returns an error. Destination and accommodation references
// arrive pre-resolved into lookup maps supplied by the caller; every missing
// or malformed optional field degrades to a documented default so a preview
// always renders something.
package itinerary

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kitasuro/kitasuro/internal/domain"
)

// DestinationInfo is a resolved destination record. Latitude and Longitude
// are kept as strings; only values that parse as finite floats make it onto
// the map.
type DestinationInfo struct {
	Name      string
	Latitude  string
	Longitude string
}

// AccommodationInfo is a resolved accommodation record.
type AccommodationInfo struct {
	Name        string
	ImageURL    string
	Description string
}

// TransformParams is the full builder state plus caller-resolved lookup maps.
type TransformParams struct {
	Days           []domain.BuilderDay
	StartDate      *time.Time
	TravelerGroups []domain.TravelerGroup
	PricingRows    []domain.PricingRow
	Extras         []domain.ExtraOption
	Inclusions     []string
	Exclusions     []string
	Title          string
	ClientName     string
	Theme          domain.Theme
	HeroImage      string
	StartCity      string
	EndCity        string
	Destinations   map[string]DestinationInfo
	Accommodations map[string]AccommodationInfo
}

// momentHours maps a qualitative time-of-day to a representative clock hour.
// Unrecognized moments fall back to 8 + activity index; renderers depend on
// that exact behavior.
var momentHours = map[string]int{
	"Morning":   9,
	"Afternoon": 14,
	"Evening":   18,
	"Half Day":  9,
	"Full Day":  9,
	"Night":     20,
}

// importantNotes is the fixed notes block appended to every itinerary.
var importantNotes = []string{
	"Prices are quoted in USD and are subject to availability at the time of booking.",
	"Accommodations may be substituted with properties of a similar standard.",
	"A valid passport with at least six months validity is required for all travelers.",
	"Park fees and government taxes are included unless listed under exclusions.",
}

// Transform builds the presentation model from builder state.
func Transform(p TransformParams) domain.ItineraryData {
	days := make([]domain.ItineraryDay, 0, len(p.Days))
	for i, day := range p.Days {
		days = append(days, transformDay(p, day, i))
	}

	total := TotalPrice(p.PricingRows, p.Extras)
	perPerson := PerPersonPrice(total, p.TravelerGroups)

	return domain.ItineraryData{
		Title:          p.Title,
		Subtitle:       subtitle(p.ClientName),
		ClientName:     p.ClientName,
		Duration:       duration(len(p.Days)),
		Location:       location(p),
		HeroImage:      p.HeroImage,
		Theme:          p.Theme,
		Itinerary:      days,
		Accommodations: accommodationList(p),
		Pricing: domain.ItineraryPricing{
			Total:     FormatUSD(total),
			PerPerson: FormatUSD(perPerson),
			Currency:  "USD",
		},
		Inclusions:     p.Inclusions,
		Exclusions:     p.Exclusions,
		ImportantNotes: importantNotes,
		Map:            mapData(p),
	}
}

func transformDay(p TransformParams, day domain.BuilderDay, idx int) domain.ItineraryDay {
	date := time.Now()
	if p.StartDate != nil {
		date = p.StartDate.AddDate(0, 0, idx)
	}

	activities := make([]domain.ItineraryActivity, 0, len(day.Activities))
	for i, a := range day.Activities {
		activities = append(activities, domain.ItineraryActivity{
			Time:        activityTime(a.Moment, i),
			Name:        a.Name,
			Description: a.Description,
			Location:    a.Location,
		})
	}

	dest := destinationName(p, day.Destination)
	lastDay := idx == len(p.Days)-1

	return domain.ItineraryDay{
		Day:           idx + 1,
		Title:         dayTitle(dest, day.Activities, idx+1),
		Date:          date,
		Destination:   dest,
		Accommodation: accommodationName(p, day.Accommodation, lastDay),
		Meals:         mealsSummary(day),
		Description:   day.Description,
		Image:         day.Image,
		Activities:    activities,
	}
}

// activityTime renders a moment as "HH:00" clock time.
func activityTime(moment string, activityIndex int) string {
	hour, ok := momentHours[moment]
	if !ok {
		hour = 8 + activityIndex
	}
	return fmt.Sprintf("%02d:00", hour)
}

// destinationName resolves a destination reference: mapped name, then the raw
// reference, then empty when the day has no destination at all.
func destinationName(p TransformParams, ref string) string {
	if ref == "" {
		return ""
	}
	if info, ok := p.Destinations[ref]; ok && info.Name != "" {
		return info.Name
	}
	return ref
}

func dayTitle(destination string, activities []domain.Activity, dayNumber int) string {
	if destination != "" {
		return "Explore " + destination
	}
	if len(activities) > 0 && activities[0].Name != "" {
		return activities[0].Name
	}
	return fmt.Sprintf("Day %d", dayNumber)
}

// accommodationName resolves an accommodation reference: mapped name, then the
// raw reference, then a placeholder that depends on whether this is the trip's
// final day.
func accommodationName(p TransformParams, ref string, lastDay bool) string {
	if ref != "" {
		if info, ok := p.Accommodations[ref]; ok && info.Name != "" {
			return info.Name
		}
		return ref
	}
	if lastDay {
		return "Last day, no accommodation"
	}
	return "To be confirmed"
}

func mealsSummary(day domain.BuilderDay) string {
	var meals []string
	if day.Breakfast {
		meals = append(meals, "Breakfast")
	}
	if day.Lunch {
		meals = append(meals, "Lunch")
	}
	if day.Dinner {
		meals = append(meals, "Dinner")
	}
	if len(meals) == 0 {
		return "None"
	}
	return strings.Join(meals, ", ")
}

// accommodationList walks days in order, deduplicating by reference with the
// first occurrence winning. References absent from the lookup map are skipped
// here even though they still surface in the day's own accommodation label.
func accommodationList(p TransformParams) []domain.ItineraryAccommodation {
	seen := make(map[string]bool)
	var list []domain.ItineraryAccommodation
	for _, day := range p.Days {
		if day.Accommodation == "" || seen[day.Accommodation] {
			continue
		}
		seen[day.Accommodation] = true
		info, ok := p.Accommodations[day.Accommodation]
		if !ok {
			continue
		}
		list = append(list, domain.ItineraryAccommodation{
			Ref:         day.Accommodation,
			Name:        info.Name,
			Image:       info.ImageURL,
			Description: info.Description,
		})
	}
	return list
}

// mapData collects mappable destinations in first-seen order, deduplicated by
// reference. A destination is mappable only when both coordinates parse as
// finite floats.
func mapData(p TransformParams) domain.ItineraryMap {
	seen := make(map[string]bool)
	var locations []domain.MapPoint
	for _, day := range p.Days {
		ref := day.Destination
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		info, ok := p.Destinations[ref]
		if !ok {
			continue
		}
		lat, latOK := parseCoordinate(info.Latitude)
		lng, lngOK := parseCoordinate(info.Longitude)
		if !latOK || !lngOK {
			continue
		}
		locations = append(locations, domain.MapPoint{Name: info.Name, Lat: lat, Lng: lng})
	}

	return domain.ItineraryMap{
		Locations: locations,
		Start:     MatchCity(p.StartCity),
		End:       MatchCity(p.EndCity),
	}
}

func parseCoordinate(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// location infers the trip's country label from the first day's resolved
// destination name, falling back to the trip title.
func location(p TransformParams) string {
	if len(p.Days) > 0 {
		if name := destinationName(p, p.Days[0].Destination); name != "" {
			return InferCountry(name)
		}
	}
	return InferCountry(p.Title)
}

func duration(dayCount int) string {
	if dayCount == 1 {
		return "1 Day"
	}
	nights := dayCount - 1
	if nights < 0 {
		nights = 0
	}
	return fmt.Sprintf("%d Days / %d Nights", dayCount, nights)
}

func subtitle(clientName string) string {
	if clientName == "" {
		return ""
	}
	return "Prepared for " + clientName
}
