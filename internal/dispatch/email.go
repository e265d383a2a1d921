package dispatch

import (
	"context"
	"fmt"
	"html"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"buildportal/platform/config"
)

// EmailSender delivers a workflow message over email.
type EmailSender interface {
	SendWorkflowMessage(ctx context.Context, toEmail, subject, content, priority string) error
}

// NoopEmailSender is used when SMTP is not configured.
type NoopEmailSender struct{}

func (NoopEmailSender) SendWorkflowMessage(context.Context, string, string, string, string) error {
	return nil
}

// SMTPSender delivers workflow messages via a direct SMTP connection
// using go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender from the SMTP configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetSMTPFromName(),
		fromEmail: cfg.GetSMTPFromAddress(),
	}
}

func (s *SMTPSender) SendWorkflowMessage(ctx context.Context, toEmail, subject, content, priority string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	if priority == "urgent" || priority == "high" {
		msg.SetImportance(gomail.ImportanceHigh)
	}
	msg.SetBodyString(gomail.TypeTextHTML, renderBody(subject, content))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func renderBody(subject, content string) string {
	return fmt.Sprintf(
		"<html><body><h2>%s</h2><p>%s</p></body></html>",
		html.EscapeString(subject),
		html.EscapeString(content),
	)
}

var (
	_ EmailSender = (*SMTPSender)(nil)
	_ EmailSender = NoopEmailSender{}
)
