package models

import "fmt"

// Role is a user's permission tier, totally ordered:
// Guest < Member < SubOp < SysOp.
type Role int

const (
	RoleGuest Role = iota
	RoleMember
	RoleSubOp
	RoleSysOp
)

// String returns the canonical lowercase name used in config and storage.
func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleMember:
		return "member"
	case RoleSubOp:
		return "subop"
	case RoleSysOp:
		return "sysop"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// IsValid checks if the role is one of the defined tiers.
func (r Role) IsValid() bool {
	return r >= RoleGuest && r <= RoleSysOp
}

// AtLeast reports whether the role meets the given minimum tier.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole maps a role name to its Role value.
func ParseRole(s string) (Role, error) {
	switch s {
	case "guest":
		return RoleGuest, nil
	case "member":
		return RoleMember, nil
	case "subop":
		return RoleSubOp, nil
	case "sysop":
		return RoleSysOp, nil
	default:
		return RoleGuest, fmt.Errorf("unknown role %q", s)
	}
}
