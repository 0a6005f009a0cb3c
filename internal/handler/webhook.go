// Package handler contains the JSON API handlers.
//
// This file implements the Stripe webhook handler for processing billing
// events.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it directly.
// Authentication is via the Stripe webhook signature verification.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/kitasuro/kitasuro/internal/billing"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/service"
	"github.com/stripe/stripe-go/v79"
)

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing billing.Service // may be nil when Stripe is not configured
	orgs    service.OrganizationService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(billingService billing.Service, orgs service.OrganizationService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billingService,
		orgs:    orgs,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC so Stripe can reach them.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook processes incoming Stripe webhook events.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Stripe webhook bodies are small; 64KB is generous.
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionChanged(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	case "invoice.payment_succeeded":
		h.handlePaymentSucceeded(event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return
	}

	if session.Customer == nil || session.Subscription == nil {
		h.logger.Warn("checkout session missing customer or subscription", "session_id", session.ID)
		return
	}

	org, err := h.orgs.GetByStripeCustomerID(webhookCtx(), session.Customer.ID)
	if err != nil {
		// The subscription.created event carries the price and will catch up.
		h.logger.Info("organization not found for checkout session",
			"customer_id", session.Customer.ID, "subscription_id", session.Subscription.ID)
		return
	}

	if err := h.orgs.UpdateSubscription(webhookCtx(), org.ID, org.PlanTier,
		session.Customer.ID, session.Subscription.ID, domain.SubscriptionStatusActive); err != nil {
		h.logger.Error("failed to update subscription on checkout", "error", err, "org_id", org.ID)
	}
}

func (h *WebhookHandler) handleSubscriptionChanged(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return
	}

	org, err := h.orgs.GetByStripeCustomerID(webhookCtx(), sub.Customer.ID)
	if err != nil {
		h.logger.Warn("organization not found for subscription event",
			"customer_id", sub.Customer.ID, "subscription_id", sub.ID)
		return
	}

	tier := org.PlanTier
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		if t := h.billing.TierForPriceID(sub.Items.Data[0].Price.ID); t != "" {
			tier = t
		}
	}

	status := subscriptionStatus(sub.Status)
	if err := h.orgs.UpdateSubscription(webhookCtx(), org.ID, tier, sub.Customer.ID, sub.ID, status); err != nil {
		h.logger.Error("failed to update subscription", "error", err, "org_id", org.ID)
		return
	}

	h.logger.Info("subscription event processed",
		"org_id", org.ID, "status", status, "tier", tier)
}

func (h *WebhookHandler) handleSubscriptionDeleted(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return
	}

	org, err := h.orgs.GetByStripeCustomerID(webhookCtx(), sub.Customer.ID)
	if err != nil {
		h.logger.Warn("organization not found for subscription deletion", "customer_id", sub.Customer.ID)
		return
	}

	// The organization drops back to the free tier when the subscription ends.
	if err := h.orgs.UpdateSubscription(webhookCtx(), org.ID, domain.PlanTierFree,
		sub.Customer.ID, "", domain.SubscriptionStatusCanceled); err != nil {
		h.logger.Error("failed to deactivate subscription", "error", err, "org_id", org.ID)
		return
	}

	h.logger.Info("subscription deleted", "org_id", org.ID, "subscription_id", sub.ID)
}

func (h *WebhookHandler) handlePaymentSucceeded(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice payment succeeded event", "error", err)
		return
	}

	if invoice.Customer == nil {
		return
	}

	org, err := h.orgs.GetByStripeCustomerID(webhookCtx(), invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("organization not found for payment succeeded", "customer_id", invoice.Customer.ID)
		return
	}

	// Recovery from past_due.
	if org.SubscriptionStatus != domain.SubscriptionStatusActive {
		if err := h.orgs.UpdateSubscription(webhookCtx(), org.ID, org.PlanTier,
			org.StripeCustomerID, org.StripeSubscriptionID, domain.SubscriptionStatusActive); err != nil {
			h.logger.Error("failed to reactivate on payment success", "error", err, "org_id", org.ID)
		}
	}
}

func (h *WebhookHandler) handlePaymentFailed(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice payment failed event", "error", err)
		return
	}

	if invoice.Customer == nil {
		return
	}

	org, err := h.orgs.GetByStripeCustomerID(webhookCtx(), invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("organization not found for payment failed", "customer_id", invoice.Customer.ID)
		return
	}

	if err := h.orgs.UpdateSubscription(webhookCtx(), org.ID, org.PlanTier,
		org.StripeCustomerID, org.StripeSubscriptionID, domain.SubscriptionStatusPastDue); err != nil {
		h.logger.Error("failed to set past_due on payment failure", "error", err, "org_id", org.ID)
		return
	}

	h.logger.Warn("payment failed", "org_id", org.ID, "customer_id", invoice.Customer.ID)
}

// subscriptionStatus maps a Stripe subscription status onto the domain enum.
func subscriptionStatus(s stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return domain.SubscriptionStatusCanceled
	default:
		return domain.SubscriptionStatusInactive
	}
}

// webhookCtx returns a background context for webhook processing.
// Webhook events are asynchronous and carry no user session.
func webhookCtx() context.Context {
	return context.Background()
}
