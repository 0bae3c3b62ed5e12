package apierrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := New(CodeAuthenticationFailed, "refresh rejected")
	outer := Wrap(inner, CodeNetwork, "GET /user/v1 failed")

	assert.True(t, HasCode(outer, CodeAuthenticationFailed),
		"wrapping must not launder a domain code into a transport code")
	assert.False(t, HasCode(outer, CodeNetwork))
	assert.ErrorIs(t, outer, inner)
}

func TestWrapAssignsCodeToPlainErrors(t *testing.T) {
	err := Wrap(errors.New("connection refused"), CodeNetwork, "dial backend")
	assert.True(t, HasCode(err, CodeNetwork))
}

func TestHasCodeTraversesWrapping(t *testing.T) {
	err := fmt.Errorf("request: %w", New(CodeInvalidOTP, "incorrect verification code"))
	assert.True(t, HasCode(err, CodeInvalidOTP))
	assert.False(t, HasCode(err, CodeOTPExpired))
	assert.False(t, HasCode(errors.New("plain"), CodeInvalidOTP))
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeInvalidOTP, true},
		{CodeValidation, true},
		{CodeRateLimited, true},
		{CodeNetwork, true},
		{CodeAuthenticationFailed, false},
		{CodeSessionExpired, false},
		{CodeTooManyAttempts, false},
	}
	for _, tt := range tests {
		err := New(tt.code, "x")
		assert.Equal(t, tt.want, Recoverable(err), "code %s", tt.code)
	}

	assert.True(t, Recoverable(errors.New("uncoded")), "uncoded errors stay screen-local")
}
