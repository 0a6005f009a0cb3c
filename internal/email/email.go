// Package email provides email sending functionality for the Kitasuro application.
//
// This package defines an EmailService interface with an SMTP implementation
// that works with Mailhog in development and any authenticated SMTP relay in
// production.
package email

import (
	"context"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendInvitationEmail invites someone to join an organization.
	// Parameters:
	// - to: Recipient email address
	// - inviterName: Name of the member who sent the invitation
	// - orgName: Name of the organization being joined
	// - token: Raw invitation token to include in the accept link
	SendInvitationEmail(ctx context.Context, to, inviterName, orgName, token string) error

	// SendProposalEmail delivers a travel proposal to a client, with a trip
	// summary in the body and a link to the rendered PDF.
	SendProposalEmail(ctx context.Context, params ProposalEmailParams) error
}

// ProposalEmailParams carries everything needed to send a proposal to a client.
type ProposalEmailParams struct {
	To         string // Client email address
	ClientName string // Client name for personalization
	AgentName  string // Sending agent's name
	OrgName    string // Agency name for the signature
	Title      string // Proposal title
	Duration   string // e.g. "5 Days / 4 Nights"
	Location   string // Destination country label
	Total      string // Formatted total, e.g. "$4,500"
	PDFURL     string // Link to the rendered itinerary PDF
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@kitasuro.com"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Kitasuro"
)
