package domain

import "time"

// TokenPair is what the login and refresh endpoints hand back: the
// short-lived access token (JWT), the opaque refresh token, and a snapshot
// of the user they belong to so clients need no follow-up profile fetch.
type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	TokenType    string        `json:"tokenType,omitempty"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expiresIn"`           // seconds until the access token expires
	User         UserSnapshot  `json:"user"`
}

// RefreshToken models the stored refresh token record. Only the SHA-256
// fingerprint of the opaque value is persisted; the raw token is returned to
// the client once and never stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	SessionID string // stable across rotations of the same session
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
