// Package domain contains core business types and interfaces.
//
// This file defines the presentation model produced by the itinerary
// transformer and consumed by the themed renderers and the PDF pipeline.
// Everything here is derived fresh on every transform call and never mutated
// after construction.
package domain

import "time"

// ItineraryActivity is one activity on a presentation day.
type ItineraryActivity struct {
	Time        string `json:"time"` // Representative clock time, "HH:00"
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// ItineraryDay is one day of the presentation itinerary.
type ItineraryDay struct {
	Day           int                 `json:"day"`   // 1-based, contiguous
	Title         string              `json:"title"` // "Explore {destination}", first activity name, or "Day {n}"
	Date          time.Time           `json:"date"`  // Calendar date; formatting is the consumer's job
	Destination   string              `json:"destination,omitempty"`   // Resolved display name, raw reference, or empty
	Accommodation string              `json:"accommodation,omitempty"` // Resolved name, raw reference, or a documented default
	Meals         string              `json:"meals"`                   // "Breakfast, Dinner" style summary, or "None"
	Description   string              `json:"description,omitempty"`
	Image         string              `json:"image,omitempty"`
	Activities    []ItineraryActivity `json:"activities"`
}

// ItineraryAccommodation is one entry in the deduplicated accommodation list.
// Only references that resolve in the caller's lookup map appear here.
type ItineraryAccommodation struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// ItineraryPricing is the computed pricing summary.
type ItineraryPricing struct {
	Total     string `json:"total"` // "$12,345", whole dollars, thousands-separated
	PerPerson string `json:"per_person"`
	Currency  string `json:"currency"` // Always "USD"
}

// MapPoint is a named coordinate on the trip map.
type MapPoint struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// ItineraryMap holds the ordered map locations plus optional start/end points.
type ItineraryMap struct {
	Locations []MapPoint `json:"locations"`
	Start     *MapPoint  `json:"start,omitempty"`
	End       *MapPoint  `json:"end,omitempty"`
}

// ItineraryData is the transformer's output: a flat presentation model for
// themed rendering front ends and the PDF/email generators.
type ItineraryData struct {
	Title          string                   `json:"title"`
	Subtitle       string                   `json:"subtitle,omitempty"`
	ClientName     string                   `json:"client_name,omitempty"`
	Duration       string                   `json:"duration"` // e.g. "5 Days / 4 Nights"
	Location       string                   `json:"location"` // Country label inferred from the first destination
	HeroImage      string                   `json:"hero_image,omitempty"`
	Theme          Theme                    `json:"theme"`
	Itinerary      []ItineraryDay           `json:"itinerary"`
	Accommodations []ItineraryAccommodation `json:"accommodations"`
	Pricing        ItineraryPricing         `json:"pricing"`
	Inclusions     []string                 `json:"inclusions"`
	Exclusions     []string                 `json:"exclusions"`
	ImportantNotes []string                 `json:"important_notes"`
	Map            ItineraryMap             `json:"map"`
}
