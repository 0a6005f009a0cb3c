// Package handler contains the JSON API handlers.
//
// This file implements the resolved-plan and feature-check handlers.
//
// Routes handled:
//   - GET /api/orgs/{orgID}/plan               -> GetPlan
//   - GET /api/orgs/{orgID}/features/{feature} -> CheckFeature
package handler

import (
	"log/slog"
	"net/http"

	"github.com/kitasuro/kitasuro/internal/auth"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/metrics"
	"github.com/kitasuro/kitasuro/internal/service"
)

// PlanHandler handles resolved-plan HTTP requests.
type PlanHandler struct {
	plans  service.PlanService
	orgs   service.OrganizationService
	logger *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans service.PlanService, orgs service.OrganizationService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:  plans,
		orgs:   orgs,
		logger: logger,
	}
}

// RegisterRoutes registers plan routes on the provided mux.
// All routes require an authenticated user.
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/orgs/{orgID}/plan", requireUser(http.HandlerFunc(h.GetPlan)))
	mux.Handle("GET /api/orgs/{orgID}/features/{feature}", requireUser(http.HandlerFunc(h.CheckFeature)))
}

// limitValue renders a Limit as either a number or the string "unlimited".
func limitValue(l domain.Limit) interface{} {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return l.Value()
}

// GetPlan returns the organization's resolved plan.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	orgID, err := orgIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if _, err := h.orgs.GetMember(r.Context(), orgID, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan, err := h.plans.GetOrgPlan(r.Context(), orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := map[string]interface{}{
		"base_tier":      string(plan.BaseTier),
		"effective_tier": string(plan.EffectiveTier),
		"is_trial":       plan.IsTrial,
		"limits": map[string]interface{}{
			"max_active_proposals": limitValue(plan.Limits.MaxActiveProposals),
			"max_team_members":     limitValue(plan.Limits.MaxTeamMembers),
			"upload_images":        plan.Limits.UploadImages,
			"all_themes":           plan.Limits.AllThemes,
			"no_watermark":         plan.Limits.NoWatermark,
			"pdf_export":           plan.Limits.PDFExport,
			"comments":             plan.Limits.Comments,
			"custom_domains":       plan.Limits.CustomDomains,
		},
	}
	if plan.TrialEndsAt != nil {
		resp["trial_ends_at"] = plan.TrialEndsAt
	}
	if plan.TrialDaysRemaining != nil {
		resp["trial_days_remaining"] = *plan.TrialDaysRemaining
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan": resp,
	})
}

// CheckFeature answers a feature-gate check for the organization.
func (h *PlanHandler) CheckFeature(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	orgID, err := orgIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if _, err := h.orgs.GetMember(r.Context(), orgID, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	feature := domain.Feature(r.PathValue("feature"))

	result, err := h.plans.CheckFeatureAccess(r.Context(), orgID, feature, service.CheckOptions{})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !result.Allowed {
		metrics.FeatureDenied.WithLabelValues(string(feature)).Inc()
	}

	resp := map[string]interface{}{
		"feature": string(feature),
		"allowed": result.Allowed,
	}
	if result.Reason != "" {
		resp["reason"] = result.Reason
	}
	if result.UpgradeTier != nil {
		resp["upgrade_tier"] = string(*result.UpgradeTier)
	}

	writeJSON(w, http.StatusOK, resp)
}
