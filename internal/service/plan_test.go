package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPlanStore returns canned values for the plan service's reads.
type stubPlanStore struct {
	planRow     repository.GetOrganizationPlanRowRow
	planErr     error
	proposals   int64
	members     int64
	invitations int64
	countErr    error
}

func (s *stubPlanStore) GetOrganizationPlanRow(ctx context.Context, id uuid.UUID) (repository.GetOrganizationPlanRowRow, error) {
	return s.planRow, s.planErr
}

func (s *stubPlanStore) CountActiveProposalsByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return s.proposals, s.countErr
}

func (s *stubPlanStore) CountSeatMembers(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return s.members, s.countErr
}

func (s *stubPlanStore) CountPendingInvitations(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return s.invitations, s.countErr
}

func newTestPlanService(store PlanStore) PlanService {
	return NewPlanService(store, slog.New(slog.DiscardHandler))
}

func int64Ptr(n int64) *int64 { return &n }

func TestGetOrgPlan(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("free with active trial promotes to pro", func(t *testing.T) {
		trialEnd := time.Now().Add(10*24*time.Hour + time.Hour)
		store := &stubPlanStore{
			planRow: repository.GetOrganizationPlanRowRow{
				PlanTier:    "free",
				TrialEndsAt: sql.NullTime{Time: trialEnd, Valid: true},
			},
		}

		plan, err := newTestPlanService(store).GetOrgPlan(ctx, orgID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanTierFree, plan.BaseTier)
		assert.Equal(t, domain.PlanTierPro, plan.EffectiveTier)
		assert.True(t, plan.IsTrial)
		require.NotNil(t, plan.TrialDaysRemaining)
		assert.Equal(t, 11, *plan.TrialDaysRemaining)
		assert.True(t, plan.Limits.AllThemes)
	})

	t.Run("free with expired trial stays free", func(t *testing.T) {
		store := &stubPlanStore{
			planRow: repository.GetOrganizationPlanRowRow{
				PlanTier:    "free",
				TrialEndsAt: sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
			},
		}

		plan, err := newTestPlanService(store).GetOrgPlan(ctx, orgID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanTierFree, plan.EffectiveTier)
		assert.False(t, plan.IsTrial)
		assert.Nil(t, plan.TrialDaysRemaining)
	})

	t.Run("free without trial stays free", func(t *testing.T) {
		store := &stubPlanStore{
			planRow: repository.GetOrganizationPlanRowRow{PlanTier: "free"},
		}

		plan, err := newTestPlanService(store).GetOrgPlan(ctx, orgID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanTierFree, plan.EffectiveTier)
		assert.Nil(t, plan.TrialDaysRemaining)
	})

	t.Run("paid tier is never promoted", func(t *testing.T) {
		store := &stubPlanStore{
			planRow: repository.GetOrganizationPlanRowRow{
				PlanTier:    "starter",
				TrialEndsAt: sql.NullTime{Time: time.Now().Add(24 * time.Hour), Valid: true},
			},
		}

		plan, err := newTestPlanService(store).GetOrgPlan(ctx, orgID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanTierStarter, plan.EffectiveTier)
		assert.False(t, plan.IsTrial)
	})

	t.Run("missing organization returns not found", func(t *testing.T) {
		store := &stubPlanStore{planErr: sql.ErrNoRows}

		_, err := newTestPlanService(store).GetOrgPlan(ctx, orgID)

		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("infrastructure faults pass through unchanged", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		store := &stubPlanStore{planErr: dbErr}

		_, err := newTestPlanService(store).GetOrgPlan(ctx, orgID)

		assert.Same(t, dbErr, err)
	})
}

func TestCheckFeatureAccess_NumericLimits(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	freeRow := repository.GetOrganizationPlanRowRow{PlanTier: "free"}

	t.Run("under the limit allows", func(t *testing.T) {
		store := &stubPlanStore{planRow: freeRow, proposals: 1}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureActiveProposals, CheckOptions{})

		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("at the limit denies with upgrade tier", func(t *testing.T) {
		store := &stubPlanStore{planRow: freeRow, proposals: 2}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureActiveProposals, CheckOptions{})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Contains(t, result.Reason, "Active proposals limit of 2")
		assert.Contains(t, result.Reason, "Free plan")
		require.NotNil(t, result.UpgradeTier)
		assert.Equal(t, domain.PlanTierStarter, *result.UpgradeTier)
	})

	t.Run("pre-computed count skips the store", func(t *testing.T) {
		store := &stubPlanStore{planRow: freeRow, countErr: errors.New("must not be called")}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureActiveProposals, CheckOptions{
			CurrentCount: int64Ptr(2),
		})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
	})

	t.Run("unlimited allows regardless of count", func(t *testing.T) {
		store := &stubPlanStore{planRow: repository.GetOrganizationPlanRowRow{PlanTier: "pro"}}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureActiveProposals, CheckOptions{
			CurrentCount: int64Ptr(1_000_000),
		})

		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("team members counts seats plus pending invitations", func(t *testing.T) {
		store := &stubPlanStore{
			planRow:     repository.GetOrganizationPlanRowRow{PlanTier: "pro"},
			members:     2,
			invitations: 1,
		}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureTeamMembers, CheckOptions{})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
		require.NotNil(t, result.UpgradeTier)
		assert.Equal(t, domain.PlanTierBusiness, *result.UpgradeTier)
	})

	t.Run("zero-seat tiers skip straight to pro", func(t *testing.T) {
		// Both free and starter allow 0 seats, so the first tier that
		// actually improves the limit is pro.
		store := &stubPlanStore{planRow: freeRow}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureTeamMembers, CheckOptions{})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
		require.NotNil(t, result.UpgradeTier)
		assert.Equal(t, domain.PlanTierPro, *result.UpgradeTier)
	})
}

func TestCheckFeatureAccess_BooleanFlags(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("enabled flag allows", func(t *testing.T) {
		store := &stubPlanStore{planRow: repository.GetOrganizationPlanRowRow{PlanTier: "starter"}}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeaturePDFExport, CheckOptions{})

		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("disabled flag denies with lowest unlocking tier", func(t *testing.T) {
		store := &stubPlanStore{planRow: repository.GetOrganizationPlanRowRow{PlanTier: "free"}}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureAllThemes, CheckOptions{})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Contains(t, result.Reason, "All themes")
		require.NotNil(t, result.UpgradeTier)
		assert.Equal(t, domain.PlanTierPro, *result.UpgradeTier)
	})

	t.Run("custom domains unlocks at business", func(t *testing.T) {
		store := &stubPlanStore{planRow: repository.GetOrganizationPlanRowRow{PlanTier: "pro"}}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureCustomDomains, CheckOptions{})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
		require.NotNil(t, result.UpgradeTier)
		assert.Equal(t, domain.PlanTierBusiness, *result.UpgradeTier)
	})
}

func TestCheckFeatureAccess_EdgeCases(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("unknown feature is allowed", func(t *testing.T) {
		// A feature tag this build does not know about must not lock
		// existing orgs out.
		store := &stubPlanStore{planRow: repository.GetOrganizationPlanRowRow{PlanTier: "free"}}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.Feature("hologram_preview"), CheckOptions{})

		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("missing organization denies as a value", func(t *testing.T) {
		store := &stubPlanStore{planErr: sql.ErrNoRows}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeaturePDFExport, CheckOptions{})

		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, "Organization not found", result.Reason)
		assert.Nil(t, result.UpgradeTier)
	})

	t.Run("other persistence errors propagate", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		store := &stubPlanStore{planErr: dbErr}

		_, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeaturePDFExport, CheckOptions{})

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("pre-fetched plan skips the plan read", func(t *testing.T) {
		store := &stubPlanStore{planErr: errors.New("must not be called")}
		plan := &domain.OrgPlan{
			BaseTier:      domain.PlanTierBusiness,
			EffectiveTier: domain.PlanTierBusiness,
			Limits:        domain.LimitsForTier(domain.PlanTierBusiness),
		}

		result, err := newTestPlanService(store).CheckFeatureAccess(ctx, orgID, domain.FeatureCustomDomains, CheckOptions{Plan: plan})

		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}
