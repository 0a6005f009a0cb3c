package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierOrder_Ascending(t *testing.T) {
	assert.Equal(t, []PlanTier{PlanTierFree, PlanTierStarter, PlanTierPro, PlanTierBusiness}, TierOrder)

	for i, tier := range TierOrder {
		assert.Equal(t, i, tier.Index())
	}
	assert.Equal(t, -1, PlanTier("enterprise").Index())
}

// Numeric limits must never decrease as tiers ascend; a tier is allowed to
// jump to unlimited but never to drop back below a lower tier's cap.
func TestPlanConfig_NumericLimitsMonotonic(t *testing.T) {
	numeric := []struct {
		name string
		get  func(PlanLimits) Limit
	}{
		{"max_active_proposals", func(l PlanLimits) Limit { return l.MaxActiveProposals }},
		{"max_team_members", func(l PlanLimits) Limit { return l.MaxTeamMembers }},
	}

	for _, field := range numeric {
		t.Run(field.name, func(t *testing.T) {
			for i := 1; i < len(TierOrder); i++ {
				lower := field.get(PlanConfig[TierOrder[i-1]])
				higher := field.get(PlanConfig[TierOrder[i]])

				if lower.IsUnlimited() {
					assert.True(t, higher.IsUnlimited(),
						"%s: %s is unlimited but %s is not", field.name, TierOrder[i-1], TierOrder[i])
					continue
				}
				if higher.IsUnlimited() {
					continue
				}
				assert.GreaterOrEqual(t, higher.Value(), lower.Value(),
					"%s: %s < %s", field.name, TierOrder[i], TierOrder[i-1])
			}
		})
	}
}

func TestLimit_Allows(t *testing.T) {
	tests := []struct {
		name  string
		limit Limit
		count int64
		want  bool
	}{
		{"under finite limit", LimitOf(3), 2, true},
		{"at finite limit", LimitOf(3), 3, false},
		{"over finite limit", LimitOf(3), 5, false},
		{"zero limit denies everything", LimitOf(0), 0, false},
		{"unlimited ignores count", Unlimited(), 1_000_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.Allows(tt.count))
		})
	}
}

func TestLimit_GreaterThan(t *testing.T) {
	assert.True(t, Unlimited().GreaterThan(LimitOf(100)))
	assert.False(t, Unlimited().GreaterThan(Unlimited()))
	assert.False(t, LimitOf(100).GreaterThan(Unlimited()))
	assert.True(t, LimitOf(3).GreaterThan(LimitOf(0)))
	assert.False(t, LimitOf(3).GreaterThan(LimitOf(3)))
}

func TestLimitsForTier_UnknownDefaultsToFree(t *testing.T) {
	assert.Equal(t, PlanConfig[PlanTierFree], LimitsForTier(PlanTier("platinum")))
}

func TestFeature_Accessors(t *testing.T) {
	pro := PlanConfig[PlanTierPro]

	limit, ok := FeatureActiveProposals.NumericLimit(pro)
	assert.True(t, ok)
	assert.True(t, limit.IsUnlimited())

	_, ok = FeaturePDFExport.NumericLimit(pro)
	assert.False(t, ok)

	enabled, ok := FeatureNoWatermark.Enabled(pro)
	assert.True(t, ok)
	assert.True(t, enabled)

	_, ok = FeatureTeamMembers.Enabled(pro)
	assert.False(t, ok, "numeric features have no boolean flag")

	_, ok = Feature("ai_autofill").Enabled(pro)
	assert.False(t, ok, "unknown features are not boolean features")
}

func TestPlanTier_DisplayName(t *testing.T) {
	assert.Equal(t, "Free", PlanTierFree.DisplayName())
	assert.Equal(t, "Business", PlanTierBusiness.DisplayName())
	assert.Equal(t, "legacy", PlanTier("legacy").DisplayName())
}
