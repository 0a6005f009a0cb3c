// Package jobs contains the background job handlers executed by the worker.
//
// Handlers are registered with the worker by job type. Failures wrapped in
// worker.PermanentError skip the retry schedule.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/metrics"
	"github.com/kitasuro/kitasuro/internal/report"
	"github.com/kitasuro/kitasuro/internal/service"
	"github.com/kitasuro/kitasuro/internal/storage"
	"github.com/kitasuro/kitasuro/internal/worker"
)

// RenderProposalPDFHandler processes jobs that render a proposal into a
// themed PDF and upload it to storage.
type RenderProposalPDFHandler struct {
	proposals service.ProposalService
	plans     service.PlanService
	storage   storage.Storage
	generator report.Generator
	logger    *slog.Logger
}

// NewRenderProposalPDFHandler creates a new handler for PDF render jobs.
func NewRenderProposalPDFHandler(
	proposals service.ProposalService,
	plans service.PlanService,
	store storage.Storage,
	generator report.Generator,
	logger *slog.Logger,
) *RenderProposalPDFHandler {
	return &RenderProposalPDFHandler{
		proposals: proposals,
		plans:     plans,
		storage:   store,
		generator: generator,
		logger:    logger,
	}
}

// Type returns the job type identifier.
func (h *RenderProposalPDFHandler) Type() string {
	return worker.JobTypeRenderProposalPDF
}

// Handle executes the PDF render job.
func (h *RenderProposalPDFHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.RenderProposalPDFPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	h.logger.Info("Rendering proposal PDF",
		"proposal_id", p.ProposalID,
		"org_id", p.OrgID,
	)

	key, size, err := renderAndStorePDF(ctx, h.proposals, h.plans, h.storage, h.generator, p.ProposalID, p.OrgID)
	if err != nil {
		return err
	}

	h.logger.Info("Proposal PDF rendered",
		"proposal_id", p.ProposalID,
		"storage_key", key,
		"size_bytes", size,
	)

	return nil
}

// renderAndStorePDF renders a proposal's itinerary to PDF, uploads it, and
// records the storage key on the proposal. The send-email handler reuses it
// when a proposal has no rendered PDF yet.
func renderAndStorePDF(
	ctx context.Context,
	proposals service.ProposalService,
	plans service.PlanService,
	store storage.Storage,
	generator report.Generator,
	proposalID, orgID uuid.UUID,
) (string, int64, error) {
	proposal, err := proposals.GetByID(ctx, proposalID, orgID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return "", 0, worker.NewPermanentError(fmt.Errorf("proposal not found: %s", proposalID))
		}
		return "", 0, fmt.Errorf("fetch proposal: %w", err)
	}

	if proposal.Status == domain.ProposalStatusArchived {
		return "", 0, worker.NewPermanentError(fmt.Errorf("proposal %s is archived", proposalID))
	}

	data, err := proposals.Preview(ctx, proposalID, orgID)
	if err != nil {
		if domain.ErrorCode(err) == domain.EINVALID {
			return "", 0, worker.NewPermanentError(fmt.Errorf("proposal not renderable: %w", err))
		}
		return "", 0, fmt.Errorf("build itinerary data: %w", err)
	}

	plan, err := plans.GetOrgPlan(ctx, orgID)
	if err != nil {
		return "", 0, fmt.Errorf("resolve org plan: %w", err)
	}

	var buf bytes.Buffer
	size, err := generator.Generate(ctx, data, report.RenderOptions{
		Watermark: !plan.Limits.NoWatermark,
	}, &buf)
	if err != nil {
		return "", 0, fmt.Errorf("generate pdf: %w", err)
	}

	key := storage.ProposalPDFKey(orgID, proposalID)
	err = store.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: "application/pdf",
		Overwrite:   true,
	})
	if err != nil {
		return "", 0, fmt.Errorf("upload pdf: %w", err)
	}

	if err := proposals.SetPDFKey(ctx, proposalID, orgID, key); err != nil {
		return "", 0, fmt.Errorf("record pdf key: %w", err)
	}

	metrics.PDFsRendered.WithLabelValues(string(data.Theme)).Inc()

	return key, size, nil
}
