package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

// Backend envelope error codes. The backend wraps every response in
// {success, data, error}; error bodies carry one of these codes.
const (
	EnvelopeValidation     = "VALIDATION_ERROR"
	EnvelopeAuthFailed     = "AUTHENTICATION_FAILED"
	EnvelopeAccessDenied   = "ACCESS_DENIED"
	EnvelopeNotFound       = "NOT_FOUND"
	EnvelopeRateLimited    = "RATE_LIMIT_EXCEEDED"
	EnvelopeInvalidOTP     = "INVALID_OTP"
	EnvelopeOTPExpired     = "OTP_EXPIRED"
	EnvelopeSessionExpired = "SESSION_EXPIRED"
	EnvelopeTooManyRetries = "TOO_MANY_ATTEMPTS"
)

// StatusForEnvelopeCode maps an envelope error code to the HTTP status the
// transport synthesizes, so enveloped failures and transport failures are
// indistinguishable downstream. Unknown codes map to 422.
func StatusForEnvelopeCode(code string) int {
	switch code {
	case EnvelopeValidation:
		return http.StatusBadRequest
	case EnvelopeAuthFailed, EnvelopeInvalidOTP:
		return http.StatusUnauthorized
	case EnvelopeAccessDenied:
		return http.StatusForbidden
	case EnvelopeNotFound:
		return http.StatusNotFound
	case EnvelopeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}

// FromResponse normalizes an HTTP status plus optional envelope error code into
// a coded error. The envelope code, when present, takes precedence over the
// bare status for auth-flow distinctions (invalid OTP vs. expired session vs.
// dead access token all arrive as 401).
func FromResponse(status int, serverCode, message string) error {
	code := codeForStatus(status)

	switch {
	case strings.Contains(serverCode, "INVALID_OTP") || strings.Contains(serverCode, "OTP_INVALID"):
		code = CodeInvalidOTP
	case strings.Contains(serverCode, "OTP_EXPIRED"):
		code = CodeOTPExpired
	case strings.Contains(serverCode, "SESSION_EXPIRED") || status == http.StatusGone:
		code = CodeSessionExpired
	case strings.Contains(serverCode, "TOO_MANY"):
		code = CodeTooManyAttempts
	case serverCode == EnvelopeRateLimited:
		code = CodeRateLimited
	case serverCode == EnvelopeAccessDenied:
		code = CodeAccessDenied
	}

	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Code: code, Message: message, HTTPStatus: status, ServerCode: serverCode}
}

func codeForStatus(status int) Code {
	switch {
	case status == http.StatusBadRequest:
		return CodeValidation
	case status == http.StatusUnauthorized:
		return CodeAuthenticationFailed
	case status == http.StatusForbidden:
		return CodeAccessDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status >= 500:
		return CodeServer
	default:
		return CodeValidation
	}
}
