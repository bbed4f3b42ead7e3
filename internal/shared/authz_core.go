package shared

// Role is the coarse permission tag embedded in tokens.
type Role string

// Core platform roles.
const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// CoreRoles lists every role known to the platform.
func CoreRoles() []Role {
	return []Role{RoleAdmin, RoleUser}
}
