package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProposalStore serves one canned proposal row and records status writes.
type stubProposalStore struct {
	proposal      repository.Proposal
	statusUpdates []repository.UpdateProposalStatusParams
}

func (s *stubProposalStore) CreateProposal(ctx context.Context, arg repository.CreateProposalParams) (repository.Proposal, error) {
	return s.proposal, nil
}

func (s *stubProposalStore) GetProposalByIDAndOrg(ctx context.Context, arg repository.GetProposalByIDAndOrgParams) (repository.Proposal, error) {
	return s.proposal, nil
}

func (s *stubProposalStore) ListProposalsByOrg(ctx context.Context, arg repository.ListProposalsByOrgParams) ([]repository.Proposal, error) {
	return nil, nil
}

func (s *stubProposalStore) CountProposalsByOrg(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubProposalStore) UpdateProposal(ctx context.Context, arg repository.UpdateProposalParams) (int64, error) {
	return 1, nil
}

func (s *stubProposalStore) UpdateProposalStatus(ctx context.Context, arg repository.UpdateProposalStatusParams) (int64, error) {
	s.statusUpdates = append(s.statusUpdates, arg)
	return 1, nil
}

func (s *stubProposalStore) DeleteProposal(ctx context.Context, arg repository.DeleteProposalParams) (int64, error) {
	return 1, nil
}

func (s *stubProposalStore) UpdateProposalPDFKey(ctx context.Context, arg repository.UpdateProposalPDFKeyParams) error {
	return nil
}

func (s *stubProposalStore) UpdateProposalHeroImage(ctx context.Context, arg repository.UpdateProposalHeroImageParams) error {
	return nil
}

func (s *stubProposalStore) ListDestinationsByRefs(ctx context.Context, refs []string) ([]repository.Destination, error) {
	return nil, nil
}

func (s *stubProposalStore) ListAccommodationsByRefs(ctx context.Context, refs []string) ([]repository.Accommodation, error) {
	return nil, nil
}

// stubPlanService returns a canned access decision and counts how often it
// was consulted.
type stubPlanService struct {
	access domain.FeatureAccessResult
	checks int
}

func (s *stubPlanService) GetOrgPlan(ctx context.Context, orgID uuid.UUID) (*domain.OrgPlan, error) {
	return nil, nil
}

func (s *stubPlanService) CheckFeatureAccess(ctx context.Context, orgID uuid.UUID, feature domain.Feature, opts CheckOptions) (domain.FeatureAccessResult, error) {
	s.checks++
	return s.access, nil
}

func newTestProposalService(store ProposalStore, plans PlanService) ProposalService {
	return NewProposalService(store, plans, slog.New(slog.DiscardHandler))
}

func proposalRow(id, orgID uuid.UUID, status domain.ProposalStatus) repository.Proposal {
	return repository.Proposal{
		ID:     id,
		OrgID:  orgID,
		Title:  "Kenya Safari",
		Theme:  string(domain.ThemeClassic),
		Status: string(status),
	}
}

func TestUpdateStatus_RestoreFromArchive(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	orgID := uuid.New()

	t.Run("restore at the plan limit is denied", func(t *testing.T) {
		store := &stubProposalStore{proposal: proposalRow(id, orgID, domain.ProposalStatusArchived)}
		tier := domain.PlanTierStarter
		plans := &stubPlanService{access: domain.Deny("Active proposals limit of 2 reached on the Free plan", &tier)}

		err := newTestProposalService(store, plans).UpdateStatus(ctx, id, orgID, domain.ProposalStatusDraft)

		require.Error(t, err)
		assert.Equal(t, domain.EPLANLIMIT, domain.ErrorCode(err))
		assert.Equal(t, 1, plans.checks)
		assert.Empty(t, store.statusUpdates, "denied restore must not write a status change")
	})

	t.Run("restore under the limit succeeds", func(t *testing.T) {
		store := &stubProposalStore{proposal: proposalRow(id, orgID, domain.ProposalStatusArchived)}
		plans := &stubPlanService{access: domain.Allow()}

		err := newTestProposalService(store, plans).UpdateStatus(ctx, id, orgID, domain.ProposalStatusSent)

		require.NoError(t, err)
		assert.Equal(t, 1, plans.checks)
		require.Len(t, store.statusUpdates, 1)
		assert.Equal(t, string(domain.ProposalStatusSent), store.statusUpdates[0].Status)
	})

	t.Run("archiving does not consult the plan", func(t *testing.T) {
		store := &stubProposalStore{proposal: proposalRow(id, orgID, domain.ProposalStatusDraft)}
		plans := &stubPlanService{}

		err := newTestProposalService(store, plans).UpdateStatus(ctx, id, orgID, domain.ProposalStatusArchived)

		require.NoError(t, err)
		assert.Equal(t, 0, plans.checks)
		require.Len(t, store.statusUpdates, 1)
	})

	t.Run("transition between active statuses does not consult the plan", func(t *testing.T) {
		store := &stubProposalStore{proposal: proposalRow(id, orgID, domain.ProposalStatusSent)}
		plans := &stubPlanService{}

		err := newTestProposalService(store, plans).UpdateStatus(ctx, id, orgID, domain.ProposalStatusAccepted)

		require.NoError(t, err)
		assert.Equal(t, 0, plans.checks)
		require.Len(t, store.statusUpdates, 1)
	})
}
