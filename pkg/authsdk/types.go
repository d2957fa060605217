package authsdk

import (
	"encoding/json"
	"time"
)

// TokenResponse is the token payload returned by login, MFA and refresh.
// The user snapshot rides along so clients need no follow-up /me call.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
	User         *User  `json:"user,omitempty"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MFARequest is the body for POST /v1/auth/mfa.
type MFARequest struct {
	MFAToken string `json:"mfaToken"`
	Method   string `json:"method"` // "totp" or "backup_code"
	Code     string `json:"code"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the body for POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// User is the public user representation returned by /v1/auth/me and the
// user listing endpoints.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	BranchID   string     `json:"branchId,omitempty"`
	Active     bool       `json:"active"`
	MFAEnabled bool       `json:"mfaEnabled"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ChangePasswordRequest is the body for POST /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// OnboardingMintRequest is the body for POST /v1/onboarding/tokens.
type OnboardingMintRequest struct {
	BranchID string `json:"branchId"`
	Role     string `json:"role"`
	TTL      string `json:"ttl,omitempty"` // Go duration string, e.g. "72h"
	Reusable bool   `json:"reusable,omitempty"`
}

// OnboardingMintResponse carries the one-time token value. The server only
// stores a fingerprint, so this is the only chance to read it.
type OnboardingMintResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OnboardingRedeemRequest is the body for POST /v1/onboarding/redeem.
type OnboardingRedeemRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// TOTPEnrollResponse carries the TOTP secret and provisioning URL returned
// by enrollment. Shown once.
type TOTPEnrollResponse struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qrCode"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// TOTPCodeRequest is the body for the MFA management endpoints that require
// a fresh TOTP code (verify, backup code regeneration, removal).
type TOTPCodeRequest struct {
	Code string `json:"code"`
}

// BackupCodesResponse carries freshly generated backup codes. Shown once;
// the server keeps only fingerprints.
type BackupCodesResponse struct {
	Codes []string `json:"codes"`
}

// successEnvelope is the wire shape for 2xx responses.
type successEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// errorEnvelope is the wire shape for error responses.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
