package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeRenderProposalPDF = "render_proposal_pdf"
	JobTypeSendProposalEmail = "send_proposal_email"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// RenderProposalPDFPayload is the payload for PDF rendering jobs.
type RenderProposalPDFPayload struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	OrgID      uuid.UUID `json:"org_id"`
}

// SendProposalEmailPayload is the payload for proposal delivery jobs.
type SendProposalEmailPayload struct {
	ProposalID     uuid.UUID `json:"proposal_id"`
	OrgID          uuid.UUID `json:"org_id"`
	RecipientEmail string    `json:"recipient_email"`
	SenderName     string    `json:"sender_name"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queries *repository.Queries,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&params)
	}

	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueRenderProposalPDF enqueues a job to render a proposal's itinerary PDF.
// This is typically called when a proposal is exported or shared.
func EnqueueRenderProposalPDF(
	ctx context.Context,
	queries *repository.Queries,
	proposalID uuid.UUID,
	orgID uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := RenderProposalPDFPayload{
		ProposalID: proposalID,
		OrgID:      orgID,
	}

	return EnqueueJob(ctx, queries, JobTypeRenderProposalPDF, payload, opts...)
}

// EnqueueSendProposalEmail enqueues a job to deliver a proposal to a client.
// The PDF is rendered first if the proposal has none.
func EnqueueSendProposalEmail(
	ctx context.Context,
	queries *repository.Queries,
	proposalID uuid.UUID,
	orgID uuid.UUID,
	recipientEmail string,
	senderName string,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := SendProposalEmailPayload{
		ProposalID:     proposalID,
		OrgID:          orgID,
		RecipientEmail: recipientEmail,
		SenderName:     senderName,
	}

	return EnqueueJob(ctx, queries, JobTypeSendProposalEmail, payload, opts...)
}
