package model

import "time"

// Account is the credential record. OTP fields are only set while a reset is
// in progress; OTPCode and OTPExpiresAt are always set or cleared together.
type Account struct {
	ID                    string     `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	PasswordChangedAt     *time.Time `json:"passwordChangedAt,omitempty"`
	OTPCode               *string    `json:"-"`
	OTPExpiresAt          *time.Time `json:"-"`
	OTPVerified           bool       `json:"-"`
	OTPAttempts           int        `json:"-"`
	OTPRequestCount       int        `json:"-"`
	OTPRequestWindowStart *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// ClearOTP drops any active reset attempt.
func (a *Account) ClearOTP() {
	a.OTPCode = nil
	a.OTPExpiresAt = nil
	a.OTPVerified = false
	a.OTPAttempts = 0
}

// SetOTP starts a reset attempt with the given code and a fresh guess budget.
func (a *Account) SetOTP(code string, expiresAt time.Time) {
	a.OTPCode = &code
	a.OTPExpiresAt = &expiresAt
	a.OTPVerified = false
	a.OTPAttempts = 0
}
