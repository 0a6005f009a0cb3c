// Package domain contains core business types and interfaces.
//
// This file defines the Proposal aggregate and the builder types that hold
// the in-progress itinerary a travel agent assembles for a client.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Proposal Status
// =============================================================================

// ProposalStatus represents the lifecycle state of a proposal.
type ProposalStatus string

const (
	// ProposalStatusDraft indicates a proposal is being assembled in the builder.
	ProposalStatusDraft ProposalStatus = "draft"

	// ProposalStatusSent indicates the proposal has been delivered to the client.
	ProposalStatusSent ProposalStatus = "sent"

	// ProposalStatusAccepted indicates the client accepted the proposal.
	ProposalStatusAccepted ProposalStatus = "accepted"

	// ProposalStatusArchived indicates the proposal is closed out. Archived
	// proposals do not count against the active-proposal limit.
	ProposalStatusArchived ProposalStatus = "archived"
)

// String returns the string representation of the status.
func (s ProposalStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSent, ProposalStatusAccepted, ProposalStatusArchived:
		return true
	}
	return false
}

// IsActive returns true if the proposal counts against the plan's
// active-proposal limit.
func (s ProposalStatus) IsActive() bool {
	return s != ProposalStatusArchived
}

// =============================================================================
// Themes
// =============================================================================

// Theme identifies a visual theme for rendered itineraries.
type Theme string

const (
	ThemeClassic Theme = "classic"
	ThemeSafari  Theme = "safari"
	ThemeLuxury  Theme = "luxury"
)

// IsValid returns true if the theme is a recognized value.
func (t Theme) IsValid() bool {
	switch t {
	case ThemeClassic, ThemeSafari, ThemeLuxury:
		return true
	}
	return false
}

// RequiresAllThemes returns true if the theme is gated behind the all_themes
// feature. The classic theme is available on every plan.
func (t Theme) RequiresAllThemes() bool {
	return t != ThemeClassic
}

// =============================================================================
// Builder Types
// =============================================================================

// Activity is a single planned activity within a builder day.
type Activity struct {
	Name        string `json:"name"`
	Moment      string `json:"moment"`                // Qualitative time of day: Morning, Afternoon, Evening, Half Day, Full Day, Night
	Description string `json:"description,omitempty"` // Optional free text
	Location    string `json:"location,omitempty"`    // Optional
}

// BuilderDay is one day of an itinerary as held by the proposal builder.
// Day numbers are contiguous starting at 1 and match array position.
type BuilderDay struct {
	Day           int        `json:"day"`
	Activities    []Activity `json:"activities"`
	Destination   string     `json:"destination,omitempty"`   // Optional destination reference
	Accommodation string     `json:"accommodation,omitempty"` // Optional accommodation reference
	Breakfast     bool       `json:"breakfast"`
	Lunch         bool       `json:"lunch"`
	Dinner        bool       `json:"dinner"`
	Description   string     `json:"description,omitempty"` // Optional
	Image         string     `json:"image,omitempty"`       // Optional preview image URL
}

// TravelerGroup describes how many travelers of one type join the trip.
type TravelerGroup struct {
	ID    string `json:"id"`    // Matches PricingRow.ID for synchronization
	Label string `json:"label"` // e.g. "Adults", "Children 5-12"
	Count int    `json:"count"`
}

// PricingRow carries per-traveler-type unit pricing. Rows are kept loosely
// synchronized with traveler groups by matching IDs.
type PricingRow struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	UnitPrice float64 `json:"unit_price"`
}

// ExtraOption is an optional add-on charge.
type ExtraOption struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Price    float64 `json:"price"`
	Selected bool    `json:"selected"`
}

// =============================================================================
// Proposal Aggregate
// =============================================================================

// Proposal represents a trip proposal built for a client.
//
// The builder collections are persisted as JSONB alongside the scalar
// columns; loading a proposal restores the builder state exactly.
type Proposal struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	CreatedBy  uuid.UUID
	Title      string
	ClientName string
	Status     ProposalStatus
	Theme      Theme
	HeroImage  string
	StartDate  *time.Time // Optional; transformer falls back to "now"
	StartCity  string     // Optional label for map start point
	EndCity    string     // Optional label for map end point

	Days           []BuilderDay
	TravelerGroups []TravelerGroup
	PricingRows    []PricingRow
	Extras         []ExtraOption
	Inclusions     []string
	Exclusions     []string

	PDFKey string // Storage key of the last rendered PDF, if any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEditable returns true if the proposal can still be edited in the builder.
func (p *Proposal) IsEditable() bool {
	return p.Status == ProposalStatusDraft || p.Status == ProposalStatusSent
}

// =============================================================================
// Service Parameters
// =============================================================================

// CreateProposalParams contains validated parameters for creating a proposal.
type CreateProposalParams struct {
	OrgID      uuid.UUID
	CreatedBy  uuid.UUID
	Title      string
	ClientName string
	Theme      Theme
	StartDate  *time.Time
}

// UpdateProposalParams contains validated parameters for updating a proposal's
// builder state.
type UpdateProposalParams struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Title      string
	ClientName string
	Theme      Theme
	HeroImage  string
	StartDate  *time.Time
	StartCity  string
	EndCity    string

	Days           []BuilderDay
	TravelerGroups []TravelerGroup
	PricingRows    []PricingRow
	Extras         []ExtraOption
	Inclusions     []string
	Exclusions     []string
}

// ListProposalsParams contains parameters for listing proposals.
type ListProposalsParams struct {
	OrgID  uuid.UUID
	Limit  int32
	Offset int32
}

// ListProposalsResult contains the result of a paginated proposal list query.
type ListProposalsResult struct {
	Proposals []Proposal
	Total     int64
	Limit     int32
	Offset    int32
}

// HasMore returns true if there are more results available.
func (r *ListProposalsResult) HasMore() bool {
	return int64(r.Offset+r.Limit) < r.Total
}
