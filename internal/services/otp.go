package services

import (
	"encoding/base32"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTPService derives time-based one-time codes from a phone/email pair.
// Nothing is stored: a code is valid while the current time window matches
// the window it was generated in (plus the configured skew).
type OTPService struct {
	salt   string
	digits int
	period time.Duration
	skew   uint
	now    func() time.Time
}

// NewOTPService builds an OTPService. salt is the server-side OTP secret.
func NewOTPService(salt string, digits int, period time.Duration, skew uint) *OTPService {
	return &OTPService{
		salt:   salt,
		digits: digits,
		period: period,
		skew:   skew,
		now:    time.Now,
	}
}

// Digits returns the code length.
func (s *OTPService) Digits() int { return s.digits }

// Generate returns the code for the current window.
func (s *OTPService) Generate(phone, email string) (string, error) {
	return totp.GenerateCodeCustom(s.key(phone, email), s.now(), s.opts())
}

// Validate reports whether code matches phone and email in the current window.
func (s *OTPService) Validate(phone, email, code string) bool {
	ok, err := totp.ValidateCustom(code, s.key(phone, email), s.now(), s.opts())
	return err == nil && ok
}

func (s *OTPService) key(phone, email string) string {
	return base32.StdEncoding.EncodeToString([]byte(phone + email + s.salt))
}

func (s *OTPService) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.period / time.Second),
		Skew:      s.skew,
		Digits:    otp.Digits(s.digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}
