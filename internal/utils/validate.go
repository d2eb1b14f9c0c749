package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const defaultPhonePattern = `^\+998[0-9]{9}$`

var (
	validate = newValidator()

	rulesMu      sync.RWMutex
	phonePattern = regexp.MustCompile(defaultPhonePattern)
	otpDigits    = 4
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		rulesMu.RLock()
		defer rulesMu.RUnlock()
		return phonePattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		rulesMu.RLock()
		defer rulesMu.RUnlock()
		code := fl.Field().String()
		if len(code) != otpDigits {
			return false
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	return v
}

// ConfigurePhonePattern replaces the regular expression behind the "phone" tag.
func ConfigurePhonePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid phone pattern: %w", err)
	}
	rulesMu.Lock()
	phonePattern = re
	rulesMu.Unlock()
	return nil
}

// ConfigureOTPDigits sets the code length enforced by the "otp" tag.
func ConfigureOTPDigits(n int) {
	rulesMu.Lock()
	otpDigits = n
	rulesMu.Unlock()
}

// ValidateStruct checks payload against its validate tags and describes the
// first violated constraint. It returns nil when payload is valid.
func ValidateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	return errors.New(describe(validationErrors[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "otp":
		return fmt.Sprintf("%s must be a %d-digit code", field, currentOTPDigits())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func currentOTPDigits() int {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	return otpDigits
}
