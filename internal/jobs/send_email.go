package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/email"
	"github.com/kitasuro/kitasuro/internal/metrics"
	"github.com/kitasuro/kitasuro/internal/report"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/kitasuro/kitasuro/internal/service"
	"github.com/kitasuro/kitasuro/internal/storage"
	"github.com/kitasuro/kitasuro/internal/worker"
)

// pdfLinkExpiry bounds presigned PDF links sent by email. S3-style
// signatures cap out at seven days.
const pdfLinkExpiry = 7 * 24 * time.Hour

// SendProposalEmailHandler processes jobs that email a proposal to a client,
// rendering the PDF first if the proposal has none.
type SendProposalEmailHandler struct {
	queries      *repository.Queries
	proposals    service.ProposalService
	plans        service.PlanService
	storage      storage.Storage
	generator    report.Generator
	emailService email.EmailService
	logger       *slog.Logger
}

// NewSendProposalEmailHandler creates a new handler for proposal email jobs.
func NewSendProposalEmailHandler(
	queries *repository.Queries,
	proposals service.ProposalService,
	plans service.PlanService,
	store storage.Storage,
	generator report.Generator,
	emailService email.EmailService,
	logger *slog.Logger,
) *SendProposalEmailHandler {
	return &SendProposalEmailHandler{
		queries:      queries,
		proposals:    proposals,
		plans:        plans,
		storage:      store,
		generator:    generator,
		emailService: emailService,
		logger:       logger,
	}
}

// Type returns the job type identifier.
func (h *SendProposalEmailHandler) Type() string {
	return worker.JobTypeSendProposalEmail
}

// Handle executes the proposal email job.
func (h *SendProposalEmailHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.SendProposalEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.RecipientEmail == "" {
		return worker.NewPermanentError(fmt.Errorf("missing recipient email"))
	}

	h.logger.Info("Sending proposal email",
		"proposal_id", p.ProposalID,
		"org_id", p.OrgID,
		"recipient", p.RecipientEmail,
	)

	proposal, err := h.proposals.GetByID(ctx, p.ProposalID, p.OrgID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return worker.NewPermanentError(fmt.Errorf("proposal not found: %s", p.ProposalID))
		}
		return fmt.Errorf("fetch proposal: %w", err)
	}

	pdfKey := proposal.PDFKey
	if pdfKey == "" {
		pdfKey, _, err = renderAndStorePDF(ctx, h.proposals, h.plans, h.storage, h.generator, p.ProposalID, p.OrgID)
		if err != nil {
			return err
		}
	}

	pdfURL, err := h.storage.URL(ctx, pdfKey, pdfLinkExpiry)
	if err != nil {
		return fmt.Errorf("pdf url: %w", err)
	}

	data, err := h.proposals.Preview(ctx, p.ProposalID, p.OrgID)
	if err != nil {
		return fmt.Errorf("build itinerary data: %w", err)
	}

	org, err := h.queries.GetOrganizationByID(ctx, p.OrgID)
	if err != nil {
		return fmt.Errorf("fetch organization: %w", err)
	}

	err = h.emailService.SendProposalEmail(ctx, email.ProposalEmailParams{
		To:         p.RecipientEmail,
		ClientName: data.ClientName,
		AgentName:  p.SenderName,
		OrgName:    org.Name,
		Title:      data.Title,
		Duration:   data.Duration,
		Location:   data.Location,
		Total:      data.Pricing.Total,
		PDFURL:     pdfURL,
	})
	if err != nil {
		metrics.EmailsSent.WithLabelValues("proposal", "failed").Inc()
		return fmt.Errorf("send proposal email: %w", err)
	}
	metrics.EmailsSent.WithLabelValues("proposal", "sent").Inc()

	h.logger.Info("Proposal email sent",
		"proposal_id", p.ProposalID,
		"recipient", p.RecipientEmail,
	)

	return nil
}
