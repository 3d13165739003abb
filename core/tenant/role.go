package tenant

import (
	"fmt"
	"strings"
)

// Role is the caller's position in the strict hierarchy
// customer < staff < admin < super_admin.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleCustomer:   1,
	RoleStaff:      2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("unknown role: %q", raw)
	}
	return role, nil
}

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the hierarchy.
// Unknown roles rank below everything.
func (r Role) AtLeast(other Role) bool {
	return roleRanks[r] >= roleRanks[other] && roleRanks[r] > 0
}

// Above reports whether r sits strictly above other in the hierarchy.
func (r Role) Above(other Role) bool {
	return roleRanks[r] > roleRanks[other] && roleRanks[other] > 0
}
