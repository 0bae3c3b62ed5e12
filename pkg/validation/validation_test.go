package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

func TestMobileNumber(t *testing.T) {
	assert.NoError(t, MobileNumber("9876543210"))

	for _, number := range []string{"", "12345", "98765432101", "98765abcde", "987654321 "} {
		err := MobileNumber(number)
		assert.True(t, apierrors.HasCode(err, apierrors.CodeValidation), "number %q", number)
	}
}

func TestValidateStruct(t *testing.T) {
	type inviteRequest struct {
		Phone string `validate:"required,mobile"`
		Role  string `validate:"required,notblank"`
	}

	assert.NoError(t, Validate(inviteRequest{Phone: "9876543210", Role: "staff"}))

	err := Validate(inviteRequest{Phone: "123", Role: "staff"})
	assert.True(t, apierrors.HasCode(err, apierrors.CodeValidation))
	assert.Contains(t, err.Error(), "phone")

	err = Validate(inviteRequest{Phone: "9876543210", Role: "   "})
	assert.True(t, apierrors.HasCode(err, apierrors.CodeValidation))
	assert.Contains(t, err.Error(), "role")
}
