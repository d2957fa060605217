package domain

import (
	"errors"
	"strings"
)

// Role is the single permission tier a user holds. Authorisation checks are
// always a membership test against a flat set of allowed roles, so there is
// no way to accidentally nest one allow-list inside another.
type Role string

const (
	RoleResident   Role = "resident"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleResident:
		return RoleResident, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Staff reports whether the role is an administrative one. Staff accounts
// may enrol MFA and mint onboarding tokens.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) String() string { return string(r) }
