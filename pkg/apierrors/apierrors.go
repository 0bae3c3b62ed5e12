// Package apierrors defines the transport-agnostic error taxonomy shared by the
// API client, transport pipeline, and session manager. Backend envelope errors
// and raw HTTP failures are normalized into these codes exactly once, at the
// client boundary, so screen-level callers never branch on HTTP status codes.
package apierrors

import (
	"errors"
)

// Code classifies a failure in domain terms, independent of how it arrived
// (transport error, HTTP status, or enveloped success=false body).
type Code string

const (
	CodeValidation           Code = "validation_failed"
	CodeRateLimited          Code = "rate_limited"
	CodeAuthenticationFailed Code = "authentication_failed"
	CodeSessionExpired       Code = "session_expired"
	CodeInvalidOTP           Code = "invalid_otp"
	CodeOTPExpired           Code = "otp_expired"
	CodeTooManyAttempts      Code = "too_many_attempts"
	CodeAccessDenied         Code = "access_denied"
	CodeNotFound             Code = "not_found"
	CodeNetwork              Code = "network_error"
	CodeServer               Code = "server_error"
	CodeInternal             Code = "internal_error"
)

// Error wraps a failure with a stable code. The HTTP status that produced it is
// retained for logging only; callers are expected to match on Code.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int
	ServerCode string // raw envelope error code, when one was present
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is matching by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates an error wrapping err. If err already carries a code, that code
// is preserved and only the message is updated.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, HTTPStatus: existing.HTTPStatus, ServerCode: existing.ServerCode, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether err is (or wraps) an Error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Recoverable reports whether the failure leaves the current auth flow
// usable. Terminal authentication failures, dead verification sessions, and
// exhausted attempt budgets force a restart; everything else stays
// screen-local (wrong OTP, validation, rate limiting, transient network).
func Recoverable(err error) bool {
	for _, code := range []Code{CodeAuthenticationFailed, CodeSessionExpired, CodeTooManyAttempts} {
		if HasCode(err, code) {
			return false
		}
	}
	return true
}
