// Package service contains the business logic layer.
//
// This file implements organization, membership, and invitation operations.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/repository"
)

// InvitationDuration is how long an invitation can be accepted.
const InvitationDuration = 7 * 24 * time.Hour

// =============================================================================
// Interface Definition
// =============================================================================

// OrganizationService defines operations on organizations and memberships.
type OrganizationService interface {
	// GetByID retrieves an organization.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error)

	// GetMember returns the caller's membership in an organization.
	// Returns domain.EFORBIDDEN if the user is not a member.
	GetMember(ctx context.Context, orgID, userID uuid.UUID) (*domain.Member, error)

	// ListMembers returns all members of an organization with user details.
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.Member, error)

	// InviteMember creates an invitation after checking the team-member seat
	// gate. Only owners and admins may invite. The raw invite token is
	// returned once for email delivery.
	InviteMember(ctx context.Context, params domain.InviteMemberParams) (*domain.InviteResult, error)

	// AcceptInvitation redeems a raw invite token for the given user,
	// creating their membership and marking the invitation accepted.
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*domain.Member, error)

	// UpdatePlan sets the organization's stored tier, clearing any trial.
	// Called from the billing webhook when a subscription changes.
	UpdatePlan(ctx context.Context, orgID uuid.UUID, tier domain.PlanTier) error

	// UpdateSubscription records the Stripe linkage for an organization.
	UpdateSubscription(ctx context.Context, orgID uuid.UUID, tier domain.PlanTier, customerID, subscriptionID string, status domain.SubscriptionStatus) error

	// GetByStripeCustomerID resolves the organization for a Stripe customer.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Organization, error)
}

// =============================================================================
// Implementation
// =============================================================================

type organizationService struct {
	db      *sql.DB
	queries *repository.Queries
	plans   PlanService
	logger  *slog.Logger
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(db *sql.DB, queries *repository.Queries, plans PlanService, logger *slog.Logger) OrganizationService {
	return &organizationService{
		db:      db,
		queries: queries,
		plans:   plans,
		logger:  logger,
	}
}

// GetByID retrieves an organization.
func (s *organizationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	const op = "OrganizationService.GetByID"

	repoOrg, err := s.queries.GetOrganizationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "organization", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve organization")
	}

	return repoOrgToDomain(repoOrg), nil
}

// GetMember returns the caller's membership in an organization.
func (s *organizationService) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*domain.Member, error) {
	const op = "OrganizationService.GetMember"

	repoMember, err := s.queries.GetMemberByOrgAndUser(ctx, repository.GetMemberByOrgAndUserParams{
		OrgID:  orgID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Forbidden(op, "You are not a member of this organization")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve membership")
	}

	return repoMemberToDomain(repoMember), nil
}

// ListMembers returns all members of an organization.
func (s *organizationService) ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.Member, error) {
	const op = "OrganizationService.ListMembers"

	rows, err := s.queries.ListMembersByOrg(ctx, orgID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list members")
	}

	members := make([]domain.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, domain.Member{
			ID:        row.ID,
			OrgID:     row.OrgID,
			UserID:    row.UserID,
			Role:      domain.MemberRole(row.Role),
			CreatedAt: row.CreatedAt,
			UserName:  row.UserName,
			UserEmail: row.UserEmail,
		})
	}
	return members, nil
}

// InviteMember creates an invitation.
//
// Flow:
// 1. Verify the inviter is an owner or admin.
// 2. Check the team_members gate (seats = member-role members + pending
//    invitations, so outstanding invites hold a seat).
// 3. Generate and hash an invite token, store the invitation.
func (s *organizationService) InviteMember(ctx context.Context, params domain.InviteMemberParams) (*domain.InviteResult, error) {
	const op = "OrganizationService.InviteMember"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}
	if !params.Role.IsValid() || params.Role == domain.MemberRoleOwner {
		return nil, domain.Invalid(op, "Role must be admin or member")
	}

	inviter, err := s.GetMember(ctx, params.OrgID, params.InviterID)
	if err != nil {
		return nil, err
	}
	if inviter.Role != domain.MemberRoleOwner && inviter.Role != domain.MemberRoleAdmin {
		return nil, domain.Forbidden(op, "Only owners and admins can invite members")
	}

	if params.Role.CountsTowardSeatLimit() {
		access, err := s.plans.CheckFeatureAccess(ctx, params.OrgID, domain.FeatureTeamMembers, CheckOptions{})
		if err != nil {
			return nil, err
		}
		if !access.Allowed {
			return nil, domain.PlanLimit(op, access.Reason)
		}
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate invite token")
	}

	repoInvitation, err := s.queries.CreateInvitation(ctx, repository.CreateInvitationParams{
		OrgID:     params.OrgID,
		Email:     params.Email,
		Role:      string(params.Role),
		TokenHash: hashSessionToken(token),
		ExpiresAt: time.Now().Add(InvitationDuration),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create invitation")
	}

	s.logger.Info("member invited", "org_id", params.OrgID, "email", params.Email, "role", params.Role)

	return &domain.InviteResult{
		Invitation: repoInvitationToDomain(repoInvitation),
		Token:      token,
	}, nil
}

// AcceptInvitation redeems a raw invite token.
func (s *organizationService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*domain.Member, error) {
	const op = "OrganizationService.AcceptInvitation"

	if len(token) != 64 {
		return nil, domain.Invalid(op, "Invalid invitation token")
	}

	repoInvitation, err := s.queries.GetInvitationByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "invitation", "")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve invitation")
	}

	invitation := repoInvitationToDomain(repoInvitation)
	if !invitation.IsAcceptable() {
		return nil, domain.Invalid(op, "Invitation has expired or was already used")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	repoMember, err := qtx.CreateMember(ctx, repository.CreateMemberParams{
		OrgID:  invitation.OrgID,
		UserID: userID,
		Role:   string(invitation.Role),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "You are already a member of this organization")
		}
		return nil, domain.Internal(err, op, "Failed to create membership")
	}

	err = qtx.UpdateInvitationStatus(ctx, repository.UpdateInvitationStatusParams{
		ID:     invitation.ID,
		Status: string(domain.InvitationStatusAccepted),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to update invitation")
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "Failed to commit invitation acceptance")
	}

	s.logger.Info("invitation accepted", "org_id", invitation.OrgID, "user_id", userID, "role", invitation.Role)

	return repoMemberToDomain(repoMember), nil
}

// UpdatePlan sets the stored tier and clears the trial. Once an organization
// has paid, trial promotion must never apply again.
func (s *organizationService) UpdatePlan(ctx context.Context, orgID uuid.UUID, tier domain.PlanTier) error {
	const op = "OrganizationService.UpdatePlan"

	if !tier.IsValid() {
		return domain.Invalid(op, "Unknown plan tier")
	}

	err := s.queries.UpdateOrganizationPlan(ctx, repository.UpdateOrganizationPlanParams{
		ID:          orgID,
		PlanTier:    tier.String(),
		TrialEndsAt: sql.NullTime{},
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update plan")
	}

	s.logger.Info("organization plan updated", "org_id", orgID, "plan_tier", tier)
	return nil
}

// UpdateSubscription records Stripe linkage and status for an organization.
func (s *organizationService) UpdateSubscription(ctx context.Context, orgID uuid.UUID, tier domain.PlanTier, customerID, subscriptionID string, status domain.SubscriptionStatus) error {
	const op = "OrganizationService.UpdateSubscription"

	err := s.queries.UpdateOrganizationSubscription(ctx, repository.UpdateOrganizationSubscriptionParams{
		ID:                   orgID,
		PlanTier:             tier.String(),
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subscriptionID,
		SubscriptionStatus:   string(status),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update subscription")
	}

	s.logger.Info("organization subscription updated", "org_id", orgID, "plan_tier", tier, "status", status)
	return nil
}

// GetByStripeCustomerID resolves the organization for a Stripe customer.
func (s *organizationService) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Organization, error) {
	const op = "OrganizationService.GetByStripeCustomerID"

	repoOrg, err := s.queries.GetOrganizationByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "organization", customerID)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve organization")
	}

	return repoOrgToDomain(repoOrg), nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func repoMemberToDomain(m repository.OrganizationMember) *domain.Member {
	return &domain.Member{
		ID:        m.ID,
		OrgID:     m.OrgID,
		UserID:    m.UserID,
		Role:      domain.MemberRole(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

func repoInvitationToDomain(i repository.Invitation) *domain.Invitation {
	return &domain.Invitation{
		ID:        i.ID,
		OrgID:     i.OrgID,
		Email:     i.Email,
		Role:      domain.MemberRole(i.Role),
		TokenHash: i.TokenHash,
		Status:    domain.InvitationStatus(i.Status),
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

// Ensure organizationService implements OrganizationService
var _ OrganizationService = (*organizationService)(nil)
