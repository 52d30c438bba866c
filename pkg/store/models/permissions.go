package models

// Permission gates consulted by the board, profile and admin handlers.
// They operate on already-loaded users; the last-SysOp count check runs
// in the store inside the same transaction as the mutation.

// RequireAdmin reports whether the user may enter the admin area.
func RequireAdmin(u *User) error {
	if u == nil || !u.Role.AtLeast(RoleSubOp) {
		return ErrPermissionDenied
	}
	return nil
}

// CanEditUser reports whether admin may edit target. SubOps may act only
// on targets at or below Member; SysOps may act on anyone.
func CanEditUser(admin, target *User) error {
	if admin == nil || target == nil {
		return ErrPermissionDenied
	}
	switch {
	case admin.Role == RoleSysOp:
		return nil
	case admin.Role == RoleSubOp && target.Role <= RoleMember:
		return nil
	default:
		return ErrPermissionDenied
	}
}

// ValidateRoleChange checks a role change request before it reaches the
// store. Only SysOps change roles, never their own. The store must still
// re-check the last-SysOp invariant transactionally; this gate catches
// the self-demotion shape of it early.
func ValidateRoleChange(admin, target *User, newRole Role) error {
	if admin == nil || target == nil {
		return ErrPermissionDenied
	}
	if admin.Role != RoleSysOp {
		return ErrPermissionDenied
	}
	if admin.ID == target.ID {
		return ErrCannotModifySelf
	}
	if !newRole.IsValid() {
		return NewValidationError("role", "unknown role")
	}
	return nil
}
