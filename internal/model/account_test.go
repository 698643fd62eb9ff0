package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountOTPFieldsMoveTogether(t *testing.T) {
	var a Account
	exp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	a.SetOTP("012345", exp)
	require.NotNil(t, a.OTPCode)
	require.NotNil(t, a.OTPExpiresAt)
	assert.Equal(t, "012345", *a.OTPCode)
	assert.Equal(t, exp, *a.OTPExpiresAt)
	assert.False(t, a.OTPVerified)

	a.OTPVerified = true
	a.OTPAttempts = 3
	a.SetOTP("654321", exp)
	assert.Equal(t, 0, a.OTPAttempts, "new code gets a fresh guess budget")

	a.OTPVerified = true
	a.OTPAttempts = 1
	a.ClearOTP()
	assert.Nil(t, a.OTPCode)
	assert.Nil(t, a.OTPExpiresAt)
	assert.False(t, a.OTPVerified)
	assert.Equal(t, 0, a.OTPAttempts)
}
