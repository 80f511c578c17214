package model

import "time"

// PhoneVerification is a one-time code issued for a phone number.
type PhoneVerification struct {
	ID         int       `json:"id"`
	Phone      string    `json:"phone"`
	OTP        string    `json:"otp"`
	IsVerified bool      `json:"is_verified"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
