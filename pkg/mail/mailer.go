package mail

import (
	"fmt"
	"html"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"nest/backend/config"
)

// Mailer sends HTML notification mail over SMTP. All sends are
// best-effort side effects: failures are logged and never returned to
// request handlers.
type Mailer struct {
	cfg    *config.MailConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewMailer creates a Mailer. When mail is disabled in config the Mailer
// is still usable; every send becomes a no-op.
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	var dialer *gomail.Dialer
	if cfg.Enabled {
		dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	}
	return &Mailer{cfg: cfg, dialer: dialer, logger: logger}
}

// Send delivers one HTML message synchronously.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if !m.cfg.Enabled || m.dialer == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// SendAsync delivers in a goroutine and only logs failures, matching the
// fire-after-response semantics of notification side effects.
func (m *Mailer) SendAsync(to, subject, htmlBody string) {
	if !m.cfg.Enabled {
		return
	}
	go func() {
		if err := m.Send(to, subject, htmlBody); err != nil {
			m.logger.Warn("mail delivery failed",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}

// RenderNotice renders the shared notification template: a heading, free
// paragraphs, and an optional key/value detail table.
func RenderNotice(title string, paragraphs []string, details map[string]string) string {
	body := "<div style=\"font-family:sans-serif;max-width:560px\">"
	body += "<h2 style=\"color:#1a472a\">" + html.EscapeString(title) + "</h2>"
	for _, p := range paragraphs {
		body += "<p>" + html.EscapeString(p) + "</p>"
	}
	if len(details) > 0 {
		body += "<table style=\"border-collapse:collapse\">"
		for k, v := range details {
			body += "<tr><td style=\"padding:4px 12px 4px 0;color:#666\">" +
				html.EscapeString(k) + "</td><td style=\"padding:4px 0\">" +
				html.EscapeString(v) + "</td></tr>"
		}
		body += "</table>"
	}
	body += "<p style=\"color:#999;font-size:12px\">Nest equipment management</p></div>"
	return body
}
