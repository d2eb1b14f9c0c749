package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// OTPSender delivers a freshly generated code to the user.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, email, code string) error
}

// EmailOTPSender delivers codes by e-mail.
type EmailOTPSender struct {
	mailer Mailer
}

func NewEmailOTPSender(mailer Mailer) *EmailOTPSender {
	return &EmailOTPSender{mailer: mailer}
}

func (s *EmailOTPSender) SendOTP(ctx context.Context, _, email, code string) error {
	body := fmt.Sprintf("Your verification code: %s\n\nIf you did not request it, ignore this message.", code)
	return s.mailer.SendPlainTextEmail(ctx, email, "Verification code", body)
}

// SMSOTPSender delivers codes by SMS.
type SMSOTPSender struct {
	sms *EskizClient
}

func NewSMSOTPSender(sms *EskizClient) *SMSOTPSender {
	return &SMSOTPSender{sms: sms}
}

func (s *SMSOTPSender) SendOTP(ctx context.Context, phone, _, code string) error {
	return s.sms.SendSMS(ctx, phone, fmt.Sprintf("Tasdiqlash kodi: %s", code))
}

// MultiOTPSender fans a code out to every channel and joins their errors.
type MultiOTPSender []OTPSender

func (m MultiOTPSender) SendOTP(ctx context.Context, phone, email, code string) error {
	var errs []error
	for _, s := range m {
		if err := s.SendOTP(ctx, phone, email, code); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopOTPSender drops codes. Used when no delivery channel is configured.
type NoopOTPSender struct{}

func (NoopOTPSender) SendOTP(_ context.Context, phone, _, _ string) error {
	log.Warn().Str("phone", phone).Msg("otp: no delivery channel configured, code not sent")
	return nil
}
