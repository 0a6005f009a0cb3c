package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any standard SMTP relay (production): Uses username/password authentication
//
// Email templates are embedded in the binary and rendered with html/template.
type SMTPEmailService struct {
	config    SMTPConfig
	baseURL   string
	templates *template.Template
	logger    *slog.Logger
}

var _ EmailService = (*SMTPEmailService)(nil)

// NewSMTPEmailService creates a new SMTP-based email service.
//
// baseURL is the application's public URL, used for constructing links
// (e.g., "http://localhost:8080").
func NewSMTPEmailService(config SMTPConfig, baseURL string, logger *slog.Logger) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(template.FuncMap{
		"currentYear": func() int { return time.Now().Year() },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		templates: templates,
		logger:    logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendInvitationEmail invites someone to join an organization.
func (s *SMTPEmailService) SendInvitationEmail(ctx context.Context, to, inviterName, orgName, token string) error {
	acceptURL := fmt.Sprintf("%s/invitations/accept?token=%s", s.baseURL, token)

	data := map[string]interface{}{
		"InviterName": inviterName,
		"OrgName":     orgName,
		"AcceptURL":   acceptURL,
	}

	htmlBody, err := s.renderTemplate("invitation.html", data)
	if err != nil {
		return fmt.Errorf("failed to render invitation email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi,

%s has invited you to join %s on Kitasuro. Accept the invitation by clicking the link below:

%s

This invitation will expire in 7 days.

If you weren't expecting this invitation, you can safely ignore this email.

Thanks,
The Kitasuro Team
`, inviterName, orgName, acceptURL)

	email := Email{
		To:       to,
		Subject:  fmt.Sprintf("You've been invited to join %s on Kitasuro", orgName),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	return s.send(ctx, email)
}

// SendProposalEmail delivers a travel proposal to a client.
func (s *SMTPEmailService) SendProposalEmail(ctx context.Context, params ProposalEmailParams) error {
	data := map[string]interface{}{
		"ClientName": params.ClientName,
		"AgentName":  params.AgentName,
		"OrgName":    params.OrgName,
		"Title":      params.Title,
		"Duration":   params.Duration,
		"Location":   params.Location,
		"Total":      params.Total,
		"PDFURL":     params.PDFURL,
	}

	htmlBody, err := s.renderTemplate("proposal_share.html", data)
	if err != nil {
		return fmt.Errorf("failed to render proposal email template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

%s from %s has prepared a travel proposal for you:

%s
%s
Total: %s

View the full itinerary here:

%s

Thanks,
%s
`, params.ClientName, params.AgentName, params.OrgName, params.Title, params.Duration, params.Total, params.PDFURL, params.OrgName)

	email := Email{
		To:       params.To,
		Subject:  fmt.Sprintf("Your travel proposal: %s", params.Title),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	return s.send(ctx, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	msg := s.buildMessage(email)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Mailhog and other dev relays accept unauthenticated mail.
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	boundary := "===============KITASURO_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
