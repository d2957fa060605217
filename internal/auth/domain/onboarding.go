package domain

import "time"

// OnboardingToken backs the QR-code resident onboarding flow. An admin mints
// a token bound to a branch and a role; the dashboard renders it as a QR
// code; scanning it lets the new resident register against that branch.
type OnboardingToken struct {
	ID        string
	TokenHash string // fingerprint of the opaque token in the QR URL
	BranchID  string
	Role      Role // role granted on redemption, resident in the common case
	CreatedBy string
	ExpiresAt time.Time
	Reusable  bool // a pinned-up QR poster redeemed by many residents
	Used      bool
	UsedBy    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
