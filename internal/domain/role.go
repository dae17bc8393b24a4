package domain

import "fmt"

// Role represents the authorization level carried in issued tokens.
type Role string

const (
	RoleCustomer    Role = "CUSTOMER"
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
)

// ParseRole converts a raw string into a known Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleSystemAdmin:
		return RoleSystemAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSystemAdmin
}

func (r Role) String() string {
	return string(r)
}
