package domain

import "time"

// Branch is a physical hostel location. It exists here only as the partition
// key users and onboarding tokens reference; branch management itself lives
// elsewhere in the platform.
type Branch struct {
	ID        string
	Name      string
	Code      string // short unique slug embedded in onboarding QR URLs
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
