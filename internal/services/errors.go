package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all services. Handlers map them to HTTP statuses.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidOTP   = errors.New("invalid or expired code")
)

// ValidationError wraps msg so it matches ErrValidation.
func ValidationError(msg string) error {
	return &publicError{kind: ErrValidation, msg: msg}
}

func notFound(what string) error {
	return &publicError{kind: ErrNotFound, msg: what + " not found"}
}

func forbidden(msg string) error {
	return &publicError{kind: ErrForbidden, msg: msg}
}

func unauthorized(msg string) error {
	return &publicError{kind: ErrUnauthorized, msg: msg}
}

func conflict(msg string) error {
	return &publicError{kind: ErrConflict, msg: msg}
}

// publicError carries a message that is safe to show to the client.
type publicError struct {
	kind error
	msg  string
}

func (e *publicError) Error() string { return e.msg }

func (e *publicError) Unwrap() error { return e.kind }

// PublicMessage returns the client-facing message of err, if it has one.
func PublicMessage(err error) (string, bool) {
	var pe *publicError
	if errors.As(err, &pe) {
		return pe.msg, true
	}
	if errors.Is(err, ErrInvalidOTP) {
		return ErrInvalidOTP.Error(), true
	}
	return "", false
}

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
