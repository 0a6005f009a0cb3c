// Package handler contains the JSON API handlers.
//
// This file implements proposal CRUD, preview, export, and share handlers.
//
// Routes handled:
//   - POST   /api/orgs/{orgID}/proposals                     -> Create
//   - GET    /api/orgs/{orgID}/proposals                     -> List
//   - GET    /api/orgs/{orgID}/proposals/{proposalID}        -> Get
//   - PUT    /api/orgs/{orgID}/proposals/{proposalID}        -> Update
//   - PATCH  /api/orgs/{orgID}/proposals/{proposalID}/status -> UpdateStatus
//   - DELETE /api/orgs/{orgID}/proposals/{proposalID}        -> Delete
//   - GET    /api/orgs/{orgID}/proposals/{proposalID}/preview -> Preview
//   - POST   /api/orgs/{orgID}/proposals/{proposalID}/export  -> Export
//   - POST   /api/orgs/{orgID}/proposals/{proposalID}/share   -> Share
//   - POST   /api/orgs/{orgID}/proposals/{proposalID}/hero    -> UploadHero
//   - DELETE /api/orgs/{orgID}/proposals/{proposalID}/hero    -> RemoveHero
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/auth"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/metrics"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/kitasuro/kitasuro/internal/service"
	"github.com/kitasuro/kitasuro/internal/worker"
)

// ProposalHandler handles proposal HTTP requests.
type ProposalHandler struct {
	proposals service.ProposalService
	plans     service.PlanService
	images    service.ImageService
	orgs      service.OrganizationService
	queries   *repository.Queries
	logger    *slog.Logger
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(
	proposals service.ProposalService,
	plans service.PlanService,
	images service.ImageService,
	orgs service.OrganizationService,
	queries *repository.Queries,
	logger *slog.Logger,
) *ProposalHandler {
	return &ProposalHandler{
		proposals: proposals,
		plans:     plans,
		images:    images,
		orgs:      orgs,
		queries:   queries,
		logger:    logger,
	}
}

// RegisterRoutes registers proposal routes on the provided mux.
// All routes require an authenticated user.
func (h *ProposalHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/orgs/{orgID}/proposals", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/orgs/{orgID}/proposals", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/orgs/{orgID}/proposals/{proposalID}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/orgs/{orgID}/proposals/{proposalID}", requireUser(http.HandlerFunc(h.Update)))
	mux.Handle("PATCH /api/orgs/{orgID}/proposals/{proposalID}/status", requireUser(http.HandlerFunc(h.UpdateStatus)))
	mux.Handle("DELETE /api/orgs/{orgID}/proposals/{proposalID}", requireUser(http.HandlerFunc(h.Delete)))
	mux.Handle("GET /api/orgs/{orgID}/proposals/{proposalID}/preview", requireUser(http.HandlerFunc(h.Preview)))
	mux.Handle("POST /api/orgs/{orgID}/proposals/{proposalID}/export", requireUser(http.HandlerFunc(h.Export)))
	mux.Handle("POST /api/orgs/{orgID}/proposals/{proposalID}/share", requireUser(http.HandlerFunc(h.Share)))
	mux.Handle("POST /api/orgs/{orgID}/proposals/{proposalID}/hero", requireUser(http.HandlerFunc(h.UploadHero)))
	mux.Handle("DELETE /api/orgs/{orgID}/proposals/{proposalID}/hero", requireUser(http.HandlerFunc(h.RemoveHero)))
}

// requireMember verifies the caller belongs to the organization in the path.
func (h *ProposalHandler) requireMember(w http.ResponseWriter, r *http.Request) (orgID uuid.UUID, ok bool) {
	user := auth.GetUser(r.Context())
	orgID, err := orgIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return uuid.Nil, false
	}
	if _, err := h.orgs.GetMember(r.Context(), orgID, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return uuid.Nil, false
	}
	return orgID, true
}

// proposalIDFromPath parses the {proposalID} path value.
func proposalIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("proposalID"))
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.EINVALID, "", "Invalid proposal ID")
	}
	return id, nil
}

// proposalResponse is the API representation of a proposal.
type proposalResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	ClientName string     `json:"client_name"`
	Status     string     `json:"status"`
	Theme      string     `json:"theme"`
	HeroImage  string     `json:"hero_image,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	StartCity  string     `json:"start_city,omitempty"`
	EndCity    string     `json:"end_city,omitempty"`
	HasPDF     bool       `json:"has_pdf"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Days           []domain.BuilderDay    `json:"days,omitempty"`
	TravelerGroups []domain.TravelerGroup `json:"traveler_groups,omitempty"`
	PricingRows    []domain.PricingRow    `json:"pricing_rows,omitempty"`
	Extras         []domain.ExtraOption   `json:"extras,omitempty"`
	Inclusions     []string               `json:"inclusions,omitempty"`
	Exclusions     []string               `json:"exclusions,omitempty"`
}

func toProposalResponse(p *domain.Proposal, includeBuilderState bool) proposalResponse {
	resp := proposalResponse{
		ID:         p.ID.String(),
		Title:      p.Title,
		ClientName: p.ClientName,
		Status:     string(p.Status),
		Theme:      string(p.Theme),
		HeroImage:  p.HeroImage,
		StartDate:  p.StartDate,
		StartCity:  p.StartCity,
		EndCity:    p.EndCity,
		HasPDF:     p.PDFKey != "",
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if includeBuilderState {
		resp.Days = p.Days
		resp.TravelerGroups = p.TravelerGroups
		resp.PricingRows = p.PricingRows
		resp.Extras = p.Extras
		resp.Inclusions = p.Inclusions
		resp.Exclusions = p.Exclusions
	}
	return resp
}

// Create creates a draft proposal.
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req struct {
		Title      string     `json:"title"`
		ClientName string     `json:"client_name"`
		Theme      string     `json:"theme"`
		StartDate  *time.Time `json:"start_date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	proposal, err := h.proposals.Create(r.Context(), domain.CreateProposalParams{
		OrgID:      orgID,
		CreatedBy:  user.ID,
		Title:      req.Title,
		ClientName: req.ClientName,
		Theme:      domain.Theme(req.Theme),
		StartDate:  req.StartDate,
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.EPLANLIMIT {
			metrics.FeatureDenied.WithLabelValues(string(domain.FeatureActiveProposals)).Inc()
		}
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.ProposalsCreated.Inc()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"proposal": toProposalResponse(proposal, true),
	})
}

// List returns a page of the organization's proposals.
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	limit := int32(20)
	offset := int32(0)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = int32(n)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = int32(n)
		}
	}

	result, err := h.proposals.List(r.Context(), domain.ListProposalsParams{
		OrgID:  orgID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]proposalResponse, 0, len(result.Proposals))
	for i := range result.Proposals {
		resp = append(resp, toProposalResponse(&result.Proposals[i], false))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proposals": resp,
		"total":     result.Total,
		"limit":     result.Limit,
		"offset":    result.Offset,
		"has_more":  result.HasMore(),
	})
}

// Get returns a proposal with its full builder state.
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	proposal, err := h.proposals.GetByID(r.Context(), proposalID, orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proposal": toProposalResponse(proposal, true),
	})
}

// Update saves the full builder state.
func (h *ProposalHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req struct {
		Title      string     `json:"title"`
		ClientName string     `json:"client_name"`
		Theme      string     `json:"theme"`
		HeroImage  string     `json:"hero_image"`
		StartDate  *time.Time `json:"start_date"`
		StartCity  string     `json:"start_city"`
		EndCity    string     `json:"end_city"`

		Days           []domain.BuilderDay    `json:"days"`
		TravelerGroups []domain.TravelerGroup `json:"traveler_groups"`
		PricingRows    []domain.PricingRow    `json:"pricing_rows"`
		Extras         []domain.ExtraOption   `json:"extras"`
		Inclusions     []string               `json:"inclusions"`
		Exclusions     []string               `json:"exclusions"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	proposal, err := h.proposals.Update(r.Context(), domain.UpdateProposalParams{
		ID:             proposalID,
		OrgID:          orgID,
		Title:          req.Title,
		ClientName:     req.ClientName,
		Theme:          domain.Theme(req.Theme),
		HeroImage:      req.HeroImage,
		StartDate:      req.StartDate,
		StartCity:      req.StartCity,
		EndCity:        req.EndCity,
		Days:           req.Days,
		TravelerGroups: req.TravelerGroups,
		PricingRows:    req.PricingRows,
		Extras:         req.Extras,
		Inclusions:     req.Inclusions,
		Exclusions:     req.Exclusions,
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.EPLANLIMIT {
			metrics.FeatureDenied.WithLabelValues(string(domain.FeatureAllThemes)).Inc()
		}
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proposal": toProposalResponse(proposal, true),
	})
}

// UpdateStatus moves a proposal through its lifecycle.
func (h *ProposalHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.proposals.UpdateStatus(r.Context(), proposalID, orgID, domain.ProposalStatus(req.Status)); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": req.Status,
	})
}

// Delete removes a proposal.
func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.proposals.Delete(r.Context(), proposalID, orgID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Preview returns the transformed itinerary presentation model.
func (h *ProposalHandler) Preview(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	data, err := h.proposals.Preview(r.Context(), proposalID, orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"itinerary": data,
	})
}

// Export enqueues a PDF render job after checking the pdf_export gate.
func (h *ProposalHandler) Export(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	access, err := h.plans.CheckFeatureAccess(r.Context(), orgID, domain.FeaturePDFExport, service.CheckOptions{})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if !access.Allowed {
		metrics.FeatureDenied.WithLabelValues(string(domain.FeaturePDFExport)).Inc()
		ErrorResponse(w, r, h.logger, domain.PlanLimit("", access.Reason))
		return
	}

	// Verify the proposal exists before queueing work.
	if _, err := h.proposals.GetByID(r.Context(), proposalID, orgID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	job, err := worker.EnqueueRenderProposalPDF(r.Context(), h.queries, proposalID, orgID, worker.WithPriority(worker.PriorityHigh))
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID.String(),
		"status": "queued",
	})
}

// Share enqueues a job that emails the proposal to a client.
func (h *ProposalHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.Email == "" {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "Recipient email is required"))
		return
	}

	proposal, err := h.proposals.GetByID(r.Context(), proposalID, orgID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	job, err := worker.EnqueueSendProposalEmail(r.Context(), h.queries, proposalID, orgID, req.Email, user.Name, worker.WithPriority(worker.PriorityHigh))
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	// Sharing a draft moves it to sent.
	if proposal.Status == domain.ProposalStatusDraft {
		if err := h.proposals.UpdateStatus(r.Context(), proposalID, orgID, domain.ProposalStatusSent); err != nil {
			h.logger.Warn("failed to mark proposal as sent", "error", err, "proposal_id", proposalID)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID.String(),
		"status": "queued",
	})
}

// UploadHero accepts a multipart hero image upload.
func (h *ProposalHandler) UploadHero(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := r.ParseMultipartForm(domain.MaxImageSize); err != nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "Invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "", "Missing image file"))
		return
	}
	defer file.Close()

	hero, err := h.images.UploadHero(r.Context(), file, header, proposalID, orgID)
	if err != nil {
		if domain.ErrorCode(err) == domain.EPLANLIMIT {
			metrics.FeatureDenied.WithLabelValues(string(domain.FeatureUploadImages)).Inc()
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.ImagesUploaded.Inc()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"hero_image": map[string]interface{}{
			"url":           hero.URL,
			"thumbnail_url": hero.ThumbnailURL,
			"content_type":  hero.ContentType,
			"size_bytes":    hero.SizeBytes,
			"width":         hero.Width,
			"height":        hero.Height,
		},
	})
}

// RemoveHero deletes the proposal's hero image.
func (h *ProposalHandler) RemoveHero(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	proposalID, err := proposalIDFromPath(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.images.RemoveHero(r.Context(), proposalID, orgID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
