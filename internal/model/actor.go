package model

// Actor is a resolved identity from the external directory: an opaque id,
// a display name, and a role. This service never authenticates
// credentials; it only consumes identities the directory already vouched
// for.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsAdmin reports whether the actor has the administrative role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles on either side fail closed.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	need, ok := levels[minimum]
	if !ok {
		return false
	}
	return levels[role] >= need
}
