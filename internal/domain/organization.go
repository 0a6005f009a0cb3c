// Package domain contains core business types and interfaces.
//
// This file defines the Organization aggregate and its membership types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the possible states of an organization's
// Stripe subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Organization represents a travel agency using the platform.
//
// This is the domain representation designed for use in business logic.
// The stored plan tier and trial expiry feed the plan resolver; the resolved
// OrgPlan is never written back.
type Organization struct {
	ID                   uuid.UUID
	Name                 string
	PlanTier             PlanTier
	TrialEndsAt          *time.Time // nil once the trial is consumed or for paid tiers
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStatus   SubscriptionStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// =============================================================================
// Membership
// =============================================================================

// MemberRole represents a member's role within an organization.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// IsValid returns true if the role is a recognized value.
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleMember:
		return true
	}
	return false
}

// CountsTowardSeatLimit returns true if the role consumes a team-member seat.
// Owners and admins are excluded from the cap.
func (r MemberRole) CountsTowardSeatLimit() bool {
	return r == MemberRoleMember
}

// Member links a user to an organization with a role.
type Member struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	UserID    uuid.UUID
	Role      MemberRole
	CreatedAt time.Time

	// Populated by joins for display
	UserName  string
	UserEmail string
}

// =============================================================================
// Invitations
// =============================================================================

// InvitationStatus represents the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRevoked  InvitationStatus = "revoked"
)

// Invitation represents a pending invite to join an organization.
// Pending invitations count against the team-member seat limit so a burst of
// invites cannot overshoot the cap.
type Invitation struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	Email     string
	Role      MemberRole
	TokenHash string // SHA-256 of the raw invite token; raw token is emailed once
	Status    InvitationStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the invitation is past its expiry.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsAcceptable returns true if the invitation can still be accepted.
func (i *Invitation) IsAcceptable() bool {
	return i.Status == InvitationStatusPending && !i.IsExpired()
}

// =============================================================================
// Service Parameters
// =============================================================================

// CreateOrganizationParams contains validated parameters for creating an
// organization.
type CreateOrganizationParams struct {
	Name    string
	OwnerID uuid.UUID
}

// InviteMemberParams contains validated parameters for inviting a member.
type InviteMemberParams struct {
	OrgID     uuid.UUID
	InviterID uuid.UUID
	Email     string
	Role      MemberRole
}

// InviteResult contains the created invitation and its raw token.
// The raw token is only returned once, for delivery by email.
type InviteResult struct {
	Invitation *Invitation
	Token      string
}
