// Package handler contains the JSON API handlers.
//
// This file implements billing and subscription management backed by Stripe.
//
// Routes handled:
//   - GET  /api/orgs/{orgID}/billing              -> GetBilling
//   - POST /api/orgs/{orgID}/billing/checkout     -> CreateCheckout
//   - POST /api/orgs/{orgID}/billing/portal       -> OpenPortal
//   - POST /api/orgs/{orgID}/billing/cancel       -> CancelSubscription
//   - POST /api/orgs/{orgID}/billing/reactivate   -> ReactivateSubscription
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kitasuro/kitasuro/internal/auth"
	"github.com/kitasuro/kitasuro/internal/billing"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/service"
)

// BillingHandler handles billing and subscription management HTTP requests.
type BillingHandler struct {
	billing billing.Service // may be nil when Stripe is not configured
	orgs    service.OrganizationService
	baseURL string
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured (development mode).
func NewBillingHandler(billingService billing.Service, orgs service.OrganizationService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		orgs:    orgs,
		baseURL: baseURL,
		logger:  logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
// All routes require an authenticated user.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/orgs/{orgID}/billing", requireUser(http.HandlerFunc(h.GetBilling)))
	mux.Handle("POST /api/orgs/{orgID}/billing/checkout", requireUser(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/orgs/{orgID}/billing/portal", requireUser(http.HandlerFunc(h.OpenPortal)))
	mux.Handle("POST /api/orgs/{orgID}/billing/cancel", requireUser(http.HandlerFunc(h.CancelSubscription)))
	mux.Handle("POST /api/orgs/{orgID}/billing/reactivate", requireUser(http.HandlerFunc(h.ReactivateSubscription)))
}

// requireBillingAdmin loads the organization after verifying the caller is an
// owner or admin. Members cannot manage billing.
func (h *BillingHandler) requireBillingAdmin(w http.ResponseWriter, r *http.Request) (*domain.Organization, bool) {
	user := auth.GetUser(r.Context())
	orgID, err := orgIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return nil, false
	}

	member, err := h.orgs.GetMember(r.Context(), orgID, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return nil, false
	}
	if member.Role != domain.MemberRoleOwner && member.Role != domain.MemberRoleAdmin {
		ErrorResponse(w, r, h.logger, domain.Forbidden("", "Only owners and admins can manage billing"))
		return nil, false
	}

	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return nil, false
	}

	return org, true
}

// billingUnavailable reports Stripe being unconfigured as a client error.
func (h *BillingHandler) billingUnavailable(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "Billing is not configured"))
}

// GetBilling returns the organization's subscription state, enriched with
// live Stripe data when available.
func (h *BillingHandler) GetBilling(w http.ResponseWriter, r *http.Request) {
	org, ok := h.requireBillingAdmin(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"plan_tier": string(org.PlanTier),
		"status":    string(org.SubscriptionStatus),
	}

	if h.billing != nil && org.StripeSubscriptionID != "" {
		sub, err := h.billing.GetSubscription(org.StripeSubscriptionID)
		if err != nil {
			h.logger.Warn("failed to fetch stripe subscription", "error", err, "subscription_id", org.StripeSubscriptionID)
		} else {
			resp["status"] = string(sub.Status)
			resp["cancel_at_period_end"] = sub.CancelAtPeriodEnd
			resp["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"billing": resp,
	})
}

// CreateCheckout creates a Stripe Checkout session and returns its URL.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	org, ok := h.requireBillingAdmin(w, r)
	if !ok {
		return
	}
	if h.billing == nil {
		h.billingUnavailable(w, r)
		return
	}

	var req struct {
		PriceID string `json:"price_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.PriceID == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "price_id is required"))
		return
	}
	if h.billing.TierForPriceID(req.PriceID) == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "Unknown price_id"))
		return
	}

	// Ensure the organization has a Stripe customer.
	customerID := org.StripeCustomerID
	if customerID == "" {
		user := auth.GetUser(r.Context())
		id, err := h.billing.CreateCustomer(user.Email, org.Name)
		if err != nil {
			InternalErrorResponse(w, r, h.logger, fmt.Errorf("create stripe customer: %w", err))
			return
		}
		customerID = id

		if err := h.orgs.UpdateSubscription(r.Context(), org.ID, org.PlanTier, customerID, org.StripeSubscriptionID, org.SubscriptionStatus); err != nil {
			InternalErrorResponse(w, r, h.logger, fmt.Errorf("record stripe customer: %w", err))
			return
		}
	}

	successURL := fmt.Sprintf("%s/settings/billing?updated=1", h.baseURL)
	cancelURL := fmt.Sprintf("%s/settings/billing", h.baseURL)

	url, err := h.billing.CreateCheckoutSession(customerID, req.PriceID, successURL, cancelURL)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, fmt.Errorf("create checkout session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"checkout_url": url,
	})
}

// OpenPortal creates a Stripe Customer Portal session and returns its URL.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	org, ok := h.requireBillingAdmin(w, r)
	if !ok {
		return
	}
	if h.billing == nil {
		h.billingUnavailable(w, r)
		return
	}
	if org.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "No billing account exists yet"))
		return
	}

	returnURL := fmt.Sprintf("%s/settings/billing", h.baseURL)
	url, err := h.billing.CreatePortalSession(org.StripeCustomerID, returnURL)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, fmt.Errorf("create portal session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"portal_url": url,
	})
}

// CancelSubscription sets the subscription to cancel at period end.
func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	org, ok := h.requireBillingAdmin(w, r)
	if !ok {
		return
	}
	if h.billing == nil {
		h.billingUnavailable(w, r)
		return
	}
	if org.StripeSubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "No active subscription"))
		return
	}

	if err := h.billing.CancelSubscription(org.StripeSubscriptionID); err != nil {
		InternalErrorResponse(w, r, h.logger, fmt.Errorf("cancel subscription: %w", err))
		return
	}

	h.logger.Info("subscription set to cancel at period end", "org_id", org.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ReactivateSubscription removes a pending cancellation.
func (h *BillingHandler) ReactivateSubscription(w http.ResponseWriter, r *http.Request) {
	org, ok := h.requireBillingAdmin(w, r)
	if !ok {
		return
	}
	if h.billing == nil {
		h.billingUnavailable(w, r)
		return
	}
	if org.StripeSubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "No active subscription"))
		return
	}

	if err := h.billing.ReactivateSubscription(org.StripeSubscriptionID); err != nil {
		InternalErrorResponse(w, r, h.logger, fmt.Errorf("reactivate subscription: %w", err))
		return
	}

	h.logger.Info("subscription reactivated", "org_id", org.ID)
	w.WriteHeader(http.StatusNoContent)
}
