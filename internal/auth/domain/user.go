package domain

import "time"

type User struct {
	ID           string
	Email        string // normalized lowercase, unique
	Name         string
	PasswordHash string // argon2 encoded, never leaves the store/service layer
	Role         Role
	BranchID     string     // optional branch association ("" for superadmins)
	Active       bool       // soft-disable flag; users are never hard-deleted while referenced
	MFAEnabled   *time.Time // timestamp when MFA was enabled (nullable)
	MFASecret    *string    // TOTP secret (nullable, base32 encoded)
	LastSeenAt   *time.Time // bumped on successful login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot strips everything a client is allowed to see. The password hash
// and MFA secret stay behind.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		BranchID:   u.BranchID,
		Active:     u.Active,
		MFAEnabled: u.MFAEnabled != nil,
		LastSeenAt: u.LastSeenAt,
		CreatedAt:  u.CreatedAt,
	}
}

// UserSnapshot is the client-facing view of a user record.
type UserSnapshot struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	BranchID   string     `json:"branchId,omitempty"`
	Active     bool       `json:"active"`
	MFAEnabled bool       `json:"mfaEnabled"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
