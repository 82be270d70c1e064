package authz

// Role is the closed set of caller roles. Authorization points switch on it
// exhaustively; anything outside the set is rejected at token validation.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleNGO       Role = "ngo"
	RoleAdmin     Role = "admin"
)

func IsValidRole(r Role) bool {
	switch r {
	case RoleVolunteer, RoleNGO, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller attached to every command. It comes
// from the auth middleware and is trusted as-is by the engine.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
