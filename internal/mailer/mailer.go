// Package mailer mirrors in-app notifications to email through SendGrid.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentsnap/internal/config"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

const sendEndpoint = "/v3/mail/send"

type Mailer interface {
	NotifyByEmail(ctx context.Context, to *domain.User, n *domain.Notification) error
}

type SendGridMailer struct {
	apiKey    string
	host      string
	fromEmail string
	fromName  string
	appURL    string
}

// NewSendGridMailer returns nil when no API key is configured.
func NewSendGridMailer(cfg config.SendGridConfig) *SendGridMailer {
	if cfg.APIKey == "" {
		return nil
	}
	return &SendGridMailer{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		appURL:    strings.TrimSuffix(cfg.AppURL, "/"),
	}
}

// WithHost points the mailer at another SendGrid compatible host.
func (s *SendGridMailer) WithHost(host string) *SendGridMailer {
	s.host = host
	return s
}

func (s *SendGridMailer) NotifyByEmail(ctx context.Context, to *domain.User, n *domain.Notification) error {
	if to.Email == "" {
		return nil
	}
	plain, htmlBody := s.render(n)
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		n.Title,
		mail.NewEmail(to.DisplayName(), to.Email),
		plain, htmlBody)

	request := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	logger.ExternalServiceCall(ctx, "sendgrid", "send", "notificationID", n.ID, "event", n.EventType)
	response, err := sendgrid.MakeRequest(request)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult(ctx, "sendgrid", "send", err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SendGridMailer) render(n *domain.Notification) (plain, htmlBody string) {
	plain = n.Message
	htmlBody = "<p>" + html.EscapeString(n.Message) + "</p>"
	if n.Link != "" && s.appURL != "" {
		link := s.appURL + n.Link
		plain += "\n\n" + link
		htmlBody += fmt.Sprintf(`<p><a href="%s">Open RentSnap</a></p>`, html.EscapeString(link))
	}
	return plain, htmlBody
}
