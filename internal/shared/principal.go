package shared

import "github.com/google/uuid"

// Principal is the authenticated caller, passed explicitly into every
// operation that makes an authorization decision.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsSelfOrAdmin reports whether the principal may act on resources owned by userID.
func (p Principal) IsSelfOrAdmin(userID uuid.UUID) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleDonor, RoleReceiver:
		return p.UserID == userID
	default:
		return false
	}
}
