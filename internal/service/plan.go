// Package service contains the business logic layer.
//
// This file implements the plan service: resolving an organization's
// effective subscription tier and answering feature-gate checks against it.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PlanService resolves effective plans and answers feature-gate checks.
type PlanService interface {
	// GetOrgPlan resolves the organization's effective plan from its stored
	// tier and trial expiry. Returns ENOTFOUND if the organization does not
	// exist. The result is safe to reuse for the rest of the request via
	// CheckOptions.Plan.
	GetOrgPlan(ctx context.Context, orgID uuid.UUID) (*domain.OrgPlan, error)

	// CheckFeatureAccess answers whether the organization may use a feature
	// right now. A missing organization yields a denied result, not an error;
	// any other persistence failure is returned unchanged.
	CheckFeatureAccess(ctx context.Context, orgID uuid.UUID, feature domain.Feature, opts CheckOptions) (domain.FeatureAccessResult, error)
}

// CheckOptions carries request-scoped state a caller may already hold, so a
// single request never reads the plan row or re-counts usage twice.
type CheckOptions struct {
	// Plan is a previously resolved plan for the same organization.
	Plan *domain.OrgPlan

	// CurrentCount is a pre-computed usage count for numeric features.
	CurrentCount *int64
}

// PlanStore is the subset of repository queries the plan service reads.
type PlanStore interface {
	GetOrganizationPlanRow(ctx context.Context, id uuid.UUID) (repository.GetOrganizationPlanRowRow, error)
	CountActiveProposalsByOrg(ctx context.Context, orgID uuid.UUID) (int64, error)
	CountSeatMembers(ctx context.Context, orgID uuid.UUID) (int64, error)
	CountPendingInvitations(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// =============================================================================
// Implementation
// =============================================================================

type planService struct {
	store  PlanStore
	logger *slog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(store PlanStore, logger *slog.Logger) PlanService {
	return &planService{
		store:  store,
		logger: logger,
	}
}

// GetOrgPlan resolves the organization's effective plan.
func (s *planService) GetOrgPlan(ctx context.Context, orgID uuid.UUID) (*domain.OrgPlan, error) {
	const op = "plan.get_org_plan"

	row, err := s.store.GetOrganizationPlanRow(ctx, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "organization", orgID.String())
		}
		// Infrastructure faults pass through untouched; retry and backoff
		// belong to the persistence layer, not here.
		return nil, err
	}

	baseTier := domain.PlanTier(row.PlanTier)
	if !baseTier.IsValid() {
		s.logger.Warn("Unknown plan tier stored, treating as free", "org_id", orgID, "plan_tier", row.PlanTier)
		baseTier = domain.PlanTierFree
	}

	var trialEndsAt *time.Time
	if row.TrialEndsAt.Valid {
		t := row.TrialEndsAt.Time
		trialEndsAt = &t
	}

	now := time.Now()
	isTrial := baseTier == domain.PlanTierFree && trialEndsAt != nil && trialEndsAt.After(now)

	effectiveTier := baseTier
	var trialDaysRemaining *int
	if isTrial {
		// Trial promotion is hard-coded to pro.
		effectiveTier = domain.PlanTierPro
		days := int(math.Ceil(trialEndsAt.Sub(now).Hours() / 24))
		trialDaysRemaining = &days
	}

	return &domain.OrgPlan{
		BaseTier:           baseTier,
		EffectiveTier:      effectiveTier,
		IsTrial:            isTrial,
		TrialEndsAt:        trialEndsAt,
		TrialDaysRemaining: trialDaysRemaining,
		Limits:             domain.LimitsForTier(effectiveTier),
	}, nil
}

// CheckFeatureAccess answers a feature-gate check for the organization.
func (s *planService) CheckFeatureAccess(ctx context.Context, orgID uuid.UUID, feature domain.Feature, opts CheckOptions) (domain.FeatureAccessResult, error) {
	plan := opts.Plan
	if plan == nil {
		resolved, err := s.GetOrgPlan(ctx, orgID)
		if err != nil {
			if domain.ErrorCode(err) == domain.ENOTFOUND {
				// Callers uniformly expect an access-result value here, so a
				// missing organization denies instead of erroring.
				return domain.Deny("Organization not found", nil), nil
			}
			return domain.FeatureAccessResult{}, err
		}
		plan = resolved
	}

	if limit, ok := feature.NumericLimit(plan.Limits); ok {
		return s.checkNumeric(ctx, orgID, feature, plan, limit, opts)
	}

	if enabled, ok := feature.Enabled(plan.Limits); ok {
		if enabled {
			return domain.Allow(), nil
		}
		reason := fmt.Sprintf("%s is not available on the %s plan", feature.DisplayName(), plan.EffectiveTier.DisplayName())
		return domain.Deny(reason, upgradeTierForFlag(plan.EffectiveTier, feature)), nil
	}

	// Unknown feature tags allow by default so new gates roll out without
	// locking existing orgs out.
	s.logger.Warn("Unknown feature tag, allowing", "org_id", orgID, "feature", feature)
	return domain.Allow(), nil
}

func (s *planService) checkNumeric(ctx context.Context, orgID uuid.UUID, feature domain.Feature, plan *domain.OrgPlan, limit domain.Limit, opts CheckOptions) (domain.FeatureAccessResult, error) {
	if limit.IsUnlimited() {
		return domain.Allow(), nil
	}

	var count int64
	if opts.CurrentCount != nil {
		count = *opts.CurrentCount
	} else {
		fetched, err := s.currentCount(ctx, orgID, feature)
		if err != nil {
			return domain.FeatureAccessResult{}, err
		}
		count = fetched
	}

	if limit.Allows(count) {
		return domain.Allow(), nil
	}

	reason := fmt.Sprintf("%s limit of %d reached on the %s plan", feature.DisplayName(), limit.Value(), plan.EffectiveTier.DisplayName())
	return domain.Deny(reason, upgradeTierForLimit(plan.EffectiveTier, feature, limit)), nil
}

// currentCount reads the present usage for a numeric feature. Team members
// counts non-admin members plus pending invitations; owners and admins never
// consume seats.
func (s *planService) currentCount(ctx context.Context, orgID uuid.UUID, feature domain.Feature) (int64, error) {
	const op = "plan.current_count"

	switch feature {
	case domain.FeatureActiveProposals:
		return s.store.CountActiveProposalsByOrg(ctx, orgID)

	case domain.FeatureTeamMembers:
		members, err := s.store.CountSeatMembers(ctx, orgID)
		if err != nil {
			return 0, err
		}
		invitations, err := s.store.CountPendingInvitations(ctx, orgID)
		if err != nil {
			return 0, err
		}
		return members + invitations, nil
	}

	return 0, domain.Errorf(domain.EINTERNAL, op, "feature %s has no usage count", feature)
}

// upgradeTierForLimit finds the lowest tier strictly above current whose limit
// for the feature is greater or unlimited. Nil when no tier improves it.
func upgradeTierForLimit(current domain.PlanTier, feature domain.Feature, limit domain.Limit) *domain.PlanTier {
	for _, tier := range tiersAbove(current) {
		candidate, ok := feature.NumericLimit(domain.LimitsForTier(tier))
		if ok && candidate.GreaterThan(limit) {
			t := tier
			return &t
		}
	}
	return nil
}

// upgradeTierForFlag finds the lowest tier strictly above current with the
// boolean feature switched on.
func upgradeTierForFlag(current domain.PlanTier, feature domain.Feature) *domain.PlanTier {
	for _, tier := range tiersAbove(current) {
		enabled, ok := feature.Enabled(domain.LimitsForTier(tier))
		if ok && enabled {
			t := tier
			return &t
		}
	}
	return nil
}

func tiersAbove(current domain.PlanTier) []domain.PlanTier {
	idx := current.Index()
	if idx < 0 || idx+1 >= len(domain.TierOrder) {
		return nil
	}
	return domain.TierOrder[idx+1:]
}
