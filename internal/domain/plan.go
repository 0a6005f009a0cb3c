// Package domain contains core business types and interfaces.
//
// This file defines subscription plan tiers, their limits, and the types
// used for feature-gate checks.
package domain

import "time"

// =============================================================================
// Plan Tiers
// =============================================================================

// PlanTier represents the pricing tier of an organization's subscription.
type PlanTier string

const (
	PlanTierFree     PlanTier = "free"
	PlanTierStarter  PlanTier = "starter"
	PlanTierPro      PlanTier = "pro"
	PlanTierBusiness PlanTier = "business"
)

// TierOrder lists all tiers in ascending order of capability.
// Upgrade suggestions iterate this slice starting just above the current tier.
var TierOrder = []PlanTier{
	PlanTierFree,
	PlanTierStarter,
	PlanTierPro,
	PlanTierBusiness,
}

// String returns the string representation of the tier.
func (t PlanTier) String() string {
	return string(t)
}

// IsValid returns true if the tier is a recognized value.
func (t PlanTier) IsValid() bool {
	switch t {
	case PlanTierFree, PlanTierStarter, PlanTierPro, PlanTierBusiness:
		return true
	}
	return false
}

// DisplayName returns the marketing name of the tier for user-facing messages.
func (t PlanTier) DisplayName() string {
	switch t {
	case PlanTierFree:
		return "Free"
	case PlanTierStarter:
		return "Starter"
	case PlanTierPro:
		return "Pro"
	case PlanTierBusiness:
		return "Business"
	default:
		return string(t)
	}
}

// Index returns the position of the tier in TierOrder, or -1 if unknown.
func (t PlanTier) Index() int {
	for i, tier := range TierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// =============================================================================
// Limits
// =============================================================================

// Limit is a numeric plan limit that is either finite or unlimited.
// An explicit tag is used instead of a -1 sentinel so that "unlimited" can
// never collide with a legitimate count.
type Limit struct {
	unlimited bool
	n         int64
}

// Unlimited returns a Limit with no cap.
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// LimitOf returns a finite Limit of n.
func LimitOf(n int64) Limit {
	return Limit{n: n}
}

// IsUnlimited returns true if the limit has no cap.
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Value returns the finite cap. Only meaningful when IsUnlimited is false.
func (l Limit) Value() int64 {
	return l.n
}

// Allows returns true if count more entries would still fit under the limit,
// i.e. the current count is strictly below the cap.
func (l Limit) Allows(count int64) bool {
	return l.unlimited || count < l.n
}

// GreaterThan reports whether this limit permits strictly more than other.
// An unlimited limit is greater than any finite one.
func (l Limit) GreaterThan(other Limit) bool {
	if l.unlimited {
		return !other.unlimited
	}
	if other.unlimited {
		return false
	}
	return l.n > other.n
}

// =============================================================================
// Plan Limits
// =============================================================================

// PlanLimits defines what a tier allows. Defined statically per tier and
// never mutated at runtime.
type PlanLimits struct {
	MaxActiveProposals Limit
	MaxTeamMembers     Limit

	UploadImages  bool
	AllThemes     bool
	NoWatermark   bool
	PDFExport     bool
	Comments      bool
	CustomDomains bool
}

// PlanConfig maps each tier to its limits. Numeric limits never decrease as
// tiers ascend.
var PlanConfig = map[PlanTier]PlanLimits{
	PlanTierFree: {
		MaxActiveProposals: LimitOf(2),
		MaxTeamMembers:     LimitOf(0),
	},
	PlanTierStarter: {
		MaxActiveProposals: LimitOf(10),
		MaxTeamMembers:     LimitOf(0),
		UploadImages:       true,
		PDFExport:          true,
	},
	PlanTierPro: {
		MaxActiveProposals: Unlimited(),
		MaxTeamMembers:     LimitOf(3),
		UploadImages:       true,
		AllThemes:          true,
		NoWatermark:        true,
		PDFExport:          true,
		Comments:           true,
	},
	PlanTierBusiness: {
		MaxActiveProposals: Unlimited(),
		MaxTeamMembers:     Unlimited(),
		UploadImages:       true,
		AllThemes:          true,
		NoWatermark:        true,
		PDFExport:          true,
		Comments:           true,
		CustomDomains:      true,
	},
}

// LimitsForTier returns the limits for a tier, defaulting to the free tier
// for unknown tiers.
func LimitsForTier(tier PlanTier) PlanLimits {
	if limits, ok := PlanConfig[tier]; ok {
		return limits
	}
	return PlanConfig[PlanTierFree]
}

// =============================================================================
// Features
// =============================================================================

// Feature identifies a gated capability of the product.
type Feature string

const (
	FeatureActiveProposals Feature = "active_proposals"
	FeatureTeamMembers     Feature = "team_members"
	FeatureUploadImages    Feature = "upload_images"
	FeatureAllThemes       Feature = "all_themes"
	FeatureNoWatermark     Feature = "no_watermark"
	FeaturePDFExport       Feature = "pdf_export"
	FeatureComments        Feature = "comments"
	FeatureCustomDomains   Feature = "custom_domains"
)

// IsNumeric returns true for features gated on a count against a Limit.
func (f Feature) IsNumeric() bool {
	return f == FeatureActiveProposals || f == FeatureTeamMembers
}

// DisplayName returns the user-facing name of a feature for denial reasons.
func (f Feature) DisplayName() string {
	switch f {
	case FeatureActiveProposals:
		return "Active proposals"
	case FeatureTeamMembers:
		return "Team members"
	case FeatureUploadImages:
		return "Image uploads"
	case FeatureAllThemes:
		return "All themes"
	case FeatureNoWatermark:
		return "Watermark removal"
	case FeaturePDFExport:
		return "PDF export"
	case FeatureComments:
		return "Comments"
	case FeatureCustomDomains:
		return "Custom domains"
	default:
		return string(f)
	}
}

// NumericLimit returns the Limit for a numeric feature on the given limits.
// The second return value is false for boolean features.
func (f Feature) NumericLimit(limits PlanLimits) (Limit, bool) {
	switch f {
	case FeatureActiveProposals:
		return limits.MaxActiveProposals, true
	case FeatureTeamMembers:
		return limits.MaxTeamMembers, true
	}
	return Limit{}, false
}

// Enabled returns whether a boolean feature is switched on for the given
// limits. The second return value is false for numeric features and for
// unknown feature tags.
func (f Feature) Enabled(limits PlanLimits) (bool, bool) {
	switch f {
	case FeatureUploadImages:
		return limits.UploadImages, true
	case FeatureAllThemes:
		return limits.AllThemes, true
	case FeatureNoWatermark:
		return limits.NoWatermark, true
	case FeaturePDFExport:
		return limits.PDFExport, true
	case FeatureComments:
		return limits.Comments, true
	case FeatureCustomDomains:
		return limits.CustomDomains, true
	}
	return false, false
}

// =============================================================================
// Resolved Plan
// =============================================================================

// OrgPlan is the resolved plan view for one organization. It is computed on
// demand from the stored tier, the trial expiry, and the wall clock; it is
// never persisted.
type OrgPlan struct {
	BaseTier           PlanTier
	EffectiveTier      PlanTier   // Promoted during an active trial; never below BaseTier
	IsTrial            bool       // True while a trial promotion is active
	TrialEndsAt        *time.Time // Stored trial expiry, if any
	TrialDaysRemaining *int       // Derived; nil when not trialing
	Limits             PlanLimits // Limits of the effective tier
}

// FeatureAccessResult is the outcome of a feature-gate check.
type FeatureAccessResult struct {
	Allowed     bool
	Reason      string    // Human-readable, set when denied
	UpgradeTier *PlanTier // Lowest tier that unlocks the feature, if any
}

// Allow returns an allowed result.
func Allow() FeatureAccessResult {
	return FeatureAccessResult{Allowed: true}
}

// Deny returns a denied result with the given reason and optional upgrade tier.
func Deny(reason string, upgrade *PlanTier) FeatureAccessResult {
	return FeatureAccessResult{Reason: reason, UpgradeTier: upgrade}
}
