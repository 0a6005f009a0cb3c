// Package service contains the business logic layer.
//
// This file implements proposal CRUD and the preview pipeline that feeds the
// itinerary transformer.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/itinerary"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/sqlc-dev/pqtype"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ProposalService defines operations on proposals.
type ProposalService interface {
	// Create creates a draft proposal after checking the active-proposal gate.
	// Returns domain.EPLANLIMIT when the plan's limit is reached.
	Create(ctx context.Context, params domain.CreateProposalParams) (*domain.Proposal, error)

	// GetByID retrieves a proposal scoped to an organization.
	GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Proposal, error)

	// List returns a page of the organization's proposals, newest first.
	List(ctx context.Context, params domain.ListProposalsParams) (*domain.ListProposalsResult, error)

	// Update saves the full builder state. Non-classic themes require the
	// all_themes feature.
	Update(ctx context.Context, params domain.UpdateProposalParams) (*domain.Proposal, error)

	// UpdateStatus moves a proposal through its lifecycle.
	UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status domain.ProposalStatus) error

	// Delete removes a proposal.
	Delete(ctx context.Context, id, orgID uuid.UUID) error

	// SetPDFKey records the storage key of a rendered PDF.
	SetPDFKey(ctx context.Context, id, orgID uuid.UUID, key string) error

	// SetHeroImage records the hero image URL.
	SetHeroImage(ctx context.Context, id, orgID uuid.UUID, url string) error

	// Preview resolves the proposal's destination and accommodation
	// references and transforms the builder state into the presentation
	// model the themed renderers consume.
	Preview(ctx context.Context, id, orgID uuid.UUID) (*domain.ItineraryData, error)
}

// ProposalStore is the subset of repository queries the proposal service
// needs. Satisfied by *repository.Queries.
type ProposalStore interface {
	CreateProposal(ctx context.Context, arg repository.CreateProposalParams) (repository.Proposal, error)
	GetProposalByIDAndOrg(ctx context.Context, arg repository.GetProposalByIDAndOrgParams) (repository.Proposal, error)
	ListProposalsByOrg(ctx context.Context, arg repository.ListProposalsByOrgParams) ([]repository.Proposal, error)
	CountProposalsByOrg(ctx context.Context, orgID uuid.UUID) (int64, error)
	UpdateProposal(ctx context.Context, arg repository.UpdateProposalParams) (int64, error)
	UpdateProposalStatus(ctx context.Context, arg repository.UpdateProposalStatusParams) (int64, error)
	DeleteProposal(ctx context.Context, arg repository.DeleteProposalParams) (int64, error)
	UpdateProposalPDFKey(ctx context.Context, arg repository.UpdateProposalPDFKeyParams) error
	UpdateProposalHeroImage(ctx context.Context, arg repository.UpdateProposalHeroImageParams) error
	ListDestinationsByRefs(ctx context.Context, refs []string) ([]repository.Destination, error)
	ListAccommodationsByRefs(ctx context.Context, refs []string) ([]repository.Accommodation, error)
}

// =============================================================================
// Implementation
// =============================================================================

type proposalService struct {
	queries ProposalStore
	plans   PlanService
	logger  *slog.Logger
}

// NewProposalService creates a new ProposalService.
func NewProposalService(queries ProposalStore, plans PlanService, logger *slog.Logger) ProposalService {
	return &proposalService{
		queries: queries,
		plans:   plans,
		logger:  logger,
	}
}

// Create creates a draft proposal.
func (s *proposalService) Create(ctx context.Context, params domain.CreateProposalParams) (*domain.Proposal, error) {
	const op = "ProposalService.Create"

	params.Title = strings.TrimSpace(params.Title)
	params.ClientName = strings.TrimSpace(params.ClientName)
	if params.Title == "" {
		return nil, domain.Invalid(op, "Title is required")
	}

	theme := params.Theme
	if theme == "" {
		theme = domain.ThemeClassic
	}
	if !theme.IsValid() {
		return nil, domain.Invalid(op, "Unknown theme")
	}
	if err := s.checkTheme(ctx, params.OrgID, theme); err != nil {
		return nil, err
	}

	access, err := s.plans.CheckFeatureAccess(ctx, params.OrgID, domain.FeatureActiveProposals, CheckOptions{})
	if err != nil {
		return nil, err
	}
	if !access.Allowed {
		return nil, domain.PlanLimit(op, access.Reason)
	}

	var startDate sql.NullTime
	if params.StartDate != nil {
		startDate = sql.NullTime{Time: *params.StartDate, Valid: true}
	}

	repoProposal, err := s.queries.CreateProposal(ctx, repository.CreateProposalParams{
		OrgID:      params.OrgID,
		CreatedBy:  params.CreatedBy,
		Title:      params.Title,
		ClientName: params.ClientName,
		Theme:      string(theme),
		StartDate:  startDate,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create proposal")
	}

	proposal, err := repoProposalToDomain(repoProposal)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to decode proposal")
	}

	s.logger.Info("proposal created", "proposal_id", proposal.ID, "org_id", params.OrgID)
	return proposal, nil
}

// GetByID retrieves a proposal scoped to an organization.
func (s *proposalService) GetByID(ctx context.Context, id, orgID uuid.UUID) (*domain.Proposal, error) {
	const op = "ProposalService.GetByID"

	repoProposal, err := s.queries.GetProposalByIDAndOrg(ctx, repository.GetProposalByIDAndOrgParams{
		ID:    id,
		OrgID: orgID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "proposal", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve proposal")
	}

	proposal, err := repoProposalToDomain(repoProposal)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to decode proposal")
	}
	return proposal, nil
}

// List returns a page of proposals ordered by last update.
func (s *proposalService) List(ctx context.Context, params domain.ListProposalsParams) (*domain.ListProposalsResult, error) {
	const op = "ProposalService.List"

	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	rows, err := s.queries.ListProposalsByOrg(ctx, repository.ListProposalsByOrgParams{
		OrgID:  params.OrgID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list proposals")
	}

	total, err := s.queries.CountProposalsByOrg(ctx, params.OrgID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to count proposals")
	}

	proposals := make([]domain.Proposal, 0, len(rows))
	for _, row := range rows {
		p, err := repoProposalToDomain(row)
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to decode proposal")
		}
		proposals = append(proposals, *p)
	}

	return &domain.ListProposalsResult{
		Proposals: proposals,
		Total:     total,
		Limit:     params.Limit,
		Offset:    params.Offset,
	}, nil
}

// Update saves the full builder state of an editable proposal.
func (s *proposalService) Update(ctx context.Context, params domain.UpdateProposalParams) (*domain.Proposal, error) {
	const op = "ProposalService.Update"

	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return nil, domain.Invalid(op, "Title is required")
	}
	if !params.Theme.IsValid() {
		return nil, domain.Invalid(op, "Unknown theme")
	}
	if err := validateDays(op, params.Days); err != nil {
		return nil, err
	}
	if err := s.checkTheme(ctx, params.OrgID, params.Theme); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, params.ID, params.OrgID)
	if err != nil {
		return nil, err
	}
	if !existing.IsEditable() {
		return nil, domain.Invalid(op, "Proposal can no longer be edited")
	}

	var startDate sql.NullTime
	if params.StartDate != nil {
		startDate = sql.NullTime{Time: *params.StartDate, Valid: true}
	}

	days, err := marshalJSONB(params.Days)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode days")
	}
	groups, err := marshalJSONB(params.TravelerGroups)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode traveler groups")
	}
	pricingRows, err := marshalJSONB(params.PricingRows)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode pricing rows")
	}
	extras, err := marshalJSONB(params.Extras)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode extras")
	}
	inclusions, err := marshalJSONB(params.Inclusions)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode inclusions")
	}
	exclusions, err := marshalJSONB(params.Exclusions)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to encode exclusions")
	}

	affected, err := s.queries.UpdateProposal(ctx, repository.UpdateProposalParams{
		ID:             params.ID,
		OrgID:          params.OrgID,
		Title:          params.Title,
		ClientName:     strings.TrimSpace(params.ClientName),
		Theme:          string(params.Theme),
		HeroImage:      params.HeroImage,
		StartDate:      startDate,
		StartCity:      params.StartCity,
		EndCity:        params.EndCity,
		Days:           days,
		TravelerGroups: groups,
		PricingRows:    pricingRows,
		Extras:         extras,
		Inclusions:     inclusions,
		Exclusions:     exclusions,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to update proposal")
	}
	if affected == 0 {
		return nil, domain.NotFound(op, "proposal", params.ID.String())
	}

	s.logger.Info("proposal updated", "proposal_id", params.ID, "org_id", params.OrgID)

	return s.GetByID(ctx, params.ID, params.OrgID)
}

// UpdateStatus moves a proposal through its lifecycle.
func (s *proposalService) UpdateStatus(ctx context.Context, id, orgID uuid.UUID, status domain.ProposalStatus) error {
	const op = "ProposalService.UpdateStatus"

	if !status.IsValid() {
		return domain.Invalid(op, "Unknown status")
	}

	current, err := s.GetByID(ctx, id, orgID)
	if err != nil {
		return err
	}

	// Restoring an archived proposal adds to the active count, so it goes
	// through the same gate as Create.
	if current.Status == domain.ProposalStatusArchived && status.IsActive() {
		access, err := s.plans.CheckFeatureAccess(ctx, orgID, domain.FeatureActiveProposals, CheckOptions{})
		if err != nil {
			return err
		}
		if !access.Allowed {
			return domain.PlanLimit(op, access.Reason)
		}
	}

	affected, err := s.queries.UpdateProposalStatus(ctx, repository.UpdateProposalStatusParams{
		ID:     id,
		OrgID:  orgID,
		Status: string(status),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update status")
	}
	if affected == 0 {
		return domain.NotFound(op, "proposal", id.String())
	}

	s.logger.Info("proposal status updated", "proposal_id", id, "status", status)
	return nil
}

// Delete removes a proposal.
func (s *proposalService) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	const op = "ProposalService.Delete"

	affected, err := s.queries.DeleteProposal(ctx, repository.DeleteProposalParams{
		ID:    id,
		OrgID: orgID,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to delete proposal")
	}
	if affected == 0 {
		return domain.NotFound(op, "proposal", id.String())
	}

	s.logger.Info("proposal deleted", "proposal_id", id, "org_id", orgID)
	return nil
}

// SetPDFKey records the storage key of a rendered PDF.
func (s *proposalService) SetPDFKey(ctx context.Context, id, orgID uuid.UUID, key string) error {
	const op = "ProposalService.SetPDFKey"

	err := s.queries.UpdateProposalPDFKey(ctx, repository.UpdateProposalPDFKeyParams{
		ID:     id,
		OrgID:  orgID,
		PdfKey: key,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update PDF key")
	}
	return nil
}

// SetHeroImage records the hero image URL.
func (s *proposalService) SetHeroImage(ctx context.Context, id, orgID uuid.UUID, url string) error {
	const op = "ProposalService.SetHeroImage"

	err := s.queries.UpdateProposalHeroImage(ctx, repository.UpdateProposalHeroImageParams{
		ID:        id,
		OrgID:     orgID,
		HeroImage: url,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update hero image")
	}
	return nil
}

// Preview resolves lookup maps and runs the transformer. The transformer
// itself never touches storage; reference resolution happens here at the
// boundary.
func (s *proposalService) Preview(ctx context.Context, id, orgID uuid.UUID) (*domain.ItineraryData, error) {
	const op = "ProposalService.Preview"

	proposal, err := s.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	destRefs, accRefs := collectRefs(proposal.Days)

	destinations := make(map[string]itinerary.DestinationInfo, len(destRefs))
	if len(destRefs) > 0 {
		rows, err := s.queries.ListDestinationsByRefs(ctx, destRefs)
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to resolve destinations")
		}
		for _, row := range rows {
			destinations[row.Ref] = itinerary.DestinationInfo{
				Name:      row.Name,
				Latitude:  row.Latitude,
				Longitude: row.Longitude,
			}
		}
	}

	accommodations := make(map[string]itinerary.AccommodationInfo, len(accRefs))
	if len(accRefs) > 0 {
		rows, err := s.queries.ListAccommodationsByRefs(ctx, accRefs)
		if err != nil {
			return nil, domain.Internal(err, op, "Failed to resolve accommodations")
		}
		for _, row := range rows {
			accommodations[row.Ref] = itinerary.AccommodationInfo{
				Name:        row.Name,
				ImageURL:    row.ImageUrl,
				Description: row.Description,
			}
		}
	}

	data := itinerary.Transform(itinerary.TransformParams{
		Days:           proposal.Days,
		StartDate:      proposal.StartDate,
		TravelerGroups: proposal.TravelerGroups,
		PricingRows:    proposal.PricingRows,
		Extras:         proposal.Extras,
		Inclusions:     proposal.Inclusions,
		Exclusions:     proposal.Exclusions,
		Title:          proposal.Title,
		ClientName:     proposal.ClientName,
		Theme:          proposal.Theme,
		HeroImage:      proposal.HeroImage,
		StartCity:      proposal.StartCity,
		EndCity:        proposal.EndCity,
		Destinations:   destinations,
		Accommodations: accommodations,
	})

	return &data, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// checkTheme enforces the all_themes gate for non-classic themes.
func (s *proposalService) checkTheme(ctx context.Context, orgID uuid.UUID, theme domain.Theme) error {
	const op = "ProposalService.checkTheme"

	if !theme.RequiresAllThemes() {
		return nil
	}

	access, err := s.plans.CheckFeatureAccess(ctx, orgID, domain.FeatureAllThemes, CheckOptions{})
	if err != nil {
		return err
	}
	if !access.Allowed {
		return domain.PlanLimit(op, access.Reason)
	}
	return nil
}

// validateDays enforces contiguous 1-based day numbering matching position.
func validateDays(op string, days []domain.BuilderDay) error {
	for i, day := range days {
		if day.Day != i+1 {
			return domain.Invalid(op, "Day numbers must be contiguous starting at 1")
		}
	}
	return nil
}

// collectRefs gathers distinct destination and accommodation references in
// first-seen order.
func collectRefs(days []domain.BuilderDay) (destRefs, accRefs []string) {
	seenDest := make(map[string]bool)
	seenAcc := make(map[string]bool)
	for _, day := range days {
		if day.Destination != "" && !seenDest[day.Destination] {
			seenDest[day.Destination] = true
			destRefs = append(destRefs, day.Destination)
		}
		if day.Accommodation != "" && !seenAcc[day.Accommodation] {
			seenAcc[day.Accommodation] = true
			accRefs = append(accRefs, day.Accommodation)
		}
	}
	return destRefs, accRefs
}

// marshalJSONB encodes a builder collection for a nullable JSONB column.
// Nil collections store SQL NULL rather than the JSON literal null.
func marshalJSONB(v interface{}) (pqtype.NullRawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	if string(raw) == "null" {
		return pqtype.NullRawMessage{}, nil
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// unmarshalJSONB decodes a nullable JSONB column into dst, leaving dst's zero
// value for NULL columns.
func unmarshalJSONB(src pqtype.NullRawMessage, dst interface{}) error {
	if !src.Valid {
		return nil
	}
	return json.Unmarshal(src.RawMessage, dst)
}

func repoProposalToDomain(p repository.Proposal) (*domain.Proposal, error) {
	proposal := &domain.Proposal{
		ID:         p.ID,
		OrgID:      p.OrgID,
		CreatedBy:  p.CreatedBy,
		Title:      p.Title,
		ClientName: p.ClientName,
		Status:     domain.ProposalStatus(p.Status),
		Theme:      domain.Theme(p.Theme),
		HeroImage:  p.HeroImage,
		StartCity:  p.StartCity,
		EndCity:    p.EndCity,
		PDFKey:     p.PdfKey,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}

	if p.StartDate.Valid {
		t := p.StartDate.Time
		proposal.StartDate = &t
	}

	if err := unmarshalJSONB(p.Days, &proposal.Days); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(p.TravelerGroups, &proposal.TravelerGroups); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(p.PricingRows, &proposal.PricingRows); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(p.Extras, &proposal.Extras); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(p.Inclusions, &proposal.Inclusions); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(p.Exclusions, &proposal.Exclusions); err != nil {
		return nil, err
	}

	return proposal, nil
}

// Ensure proposalService implements ProposalService
var _ ProposalService = (*proposalService)(nil)
