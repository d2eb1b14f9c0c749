package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/example/bozor/internal/config"
)

// Mailer sends plain-text e-mail.
type Mailer interface {
	SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error
}

// NewMailer picks Resend when an API key is configured, SMTP when SMTP
// credentials are present, and nil when neither is.
func NewMailer(cfg *config.Config) Mailer {
	switch {
	case cfg.ResendAPIKey != "":
		log.Info().Msg("mail: using Resend")
		return NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)
	case cfg.SMTPUsername != "":
		log.Info().Str("host", cfg.SMTPHost).Msg("mail: using SMTP")
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	default:
		return nil
	}
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + recipientEmail + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	errChan := make(chan error, 1)
	go func() {
		errChan <- smtp.SendMail(fmt.Sprintf("%s:%s", m.host, m.port), auth, m.from, []string{recipientEmail}, msg)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email sending canceled: %w", ctx.Err())
	}
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{recipientEmail},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
