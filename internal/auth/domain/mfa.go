package domain

import "time"

// MFASession is the short-lived challenge between a successful password
// check and the OTP submission for MFA-enabled staff accounts.
type MFASession struct {
	Token     string // opaque challenge token handed to the client
	UserID    string
	SessionID string // carried into the issued tokens on success
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// MFAEnrollment is returned once when TOTP enrolment starts.
type MFAEnrollment struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qrCode"` // otpauth:// provisioning URL
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}
