// Package handler contains the JSON API handlers.
//
// This file implements organization, membership, and invitation handlers.
//
// Routes handled:
//   - GET  /api/orgs/{orgID}             -> GetOrganization
//   - GET  /api/orgs/{orgID}/members     -> ListMembers
//   - POST /api/orgs/{orgID}/invitations -> InviteMember
//   - POST /api/invitations/accept       -> AcceptInvitation
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/auth"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/email"
	"github.com/kitasuro/kitasuro/internal/metrics"
	"github.com/kitasuro/kitasuro/internal/service"
)

// OrganizationHandler handles organization HTTP requests.
type OrganizationHandler struct {
	orgs         service.OrganizationService
	emailService email.EmailService // may be nil
	logger       *slog.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgs service.OrganizationService, emailService email.EmailService, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgs:         orgs,
		emailService: emailService,
		logger:       logger,
	}
}

// RegisterRoutes registers organization routes on the provided mux.
// All routes require an authenticated user.
func (h *OrganizationHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/orgs/{orgID}", requireUser(http.HandlerFunc(h.GetOrganization)))
	mux.Handle("GET /api/orgs/{orgID}/members", requireUser(http.HandlerFunc(h.ListMembers)))
	mux.Handle("POST /api/orgs/{orgID}/invitations", requireUser(http.HandlerFunc(h.InviteMember)))
	mux.Handle("POST /api/invitations/accept", requireUser(http.HandlerFunc(h.AcceptInvitation)))
}

// orgIDFromPath parses the {orgID} path value.
func orgIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("orgID"))
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.EINVALID, "", "Invalid organization ID")
	}
	return id, nil
}

// GetOrganization returns an organization along with the caller's role.
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	orgID, err := orgIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	member, err := h.orgs.GetMember(r.Context(), orgID, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"organization": map[string]interface{}{
			"id":         org.ID.String(),
			"name":       org.Name,
			"plan_tier":  string(org.PlanTier),
			"created_at": org.CreatedAt,
		},
		"role": string(member.Role),
	})
}

// memberResponse is the API representation of a membership.
type memberResponse struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// ListMembers returns all members of the organization.
func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
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

	members, err := h.orgs.ListMembers(r.Context(), orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse{
			ID:       m.ID.String(),
			UserID:   m.UserID.String(),
			Name:     m.UserName,
			Email:    m.UserEmail,
			Role:     string(m.Role),
			JoinedAt: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"members": resp,
	})
}

// InviteMember creates an invitation and emails the invite link.
func (h *OrganizationHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	orgID, err := orgIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	role := domain.MemberRole(req.Role)
	if req.Role == "" {
		role = domain.MemberRoleMember
	}

	result, err := h.orgs.InviteMember(r.Context(), domain.InviteMemberParams{
		OrgID:     orgID,
		InviterID: user.ID,
		Email:     req.Email,
		Role:      role,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	// Email delivery is best effort; the invitation exists either way.
	if h.emailService != nil {
		org, orgErr := h.orgs.GetByID(r.Context(), orgID)
		orgName := ""
		if orgErr == nil {
			orgName = org.Name
		}
		if err := h.emailService.SendInvitationEmail(r.Context(), result.Invitation.Email, user.Name, orgName, result.Token); err != nil {
			metrics.EmailsSent.WithLabelValues("invitation", "failed").Inc()
			h.logger.Error("failed to send invitation email",
				"error", err,
				"org_id", orgID,
				"email", result.Invitation.Email,
			)
		} else {
			metrics.EmailsSent.WithLabelValues("invitation", "sent").Inc()
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"invitation": map[string]interface{}{
			"id":         result.Invitation.ID.String(),
			"email":      result.Invitation.Email,
			"role":       string(result.Invitation.Role),
			"expires_at": result.Invitation.ExpiresAt,
		},
	})
}

// AcceptInvitation redeems an invite token for the authenticated user.
func (h *OrganizationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.Token == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "Invitation token is required"))
		return
	}

	member, err := h.orgs.AcceptInvitation(r.Context(), req.Token, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("invitation accepted", "org_id", member.OrgID, "user_id", user.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member": map[string]interface{}{
			"org_id": member.OrgID.String(),
			"role":   string(member.Role),
		},
	})
}
