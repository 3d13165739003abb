package tenant

// Action is a capability a caller may hold against a tenant-scoped resource.
type Action string

const (
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionModify     Action = "modify"
	ActionDestroy    Action = "destroy"
	ActionAssignRole Action = "assign_role"
)

// Target identifies the resource side of a capability check: the tenant the
// resource belongs to, and for role assignment the role being granted.
type Target struct {
	TenantID *int64
	Role     Role
}

// capabilityFloors is the single declarative policy table shared by the HTTP
// and realtime paths: the minimum role holding each capability within the
// caller's own tenant. Cross-tenant access is reserved to super_admin.
// Actions absent from the table are denied for everyone.
var capabilityFloors = map[Action]Role{
	ActionView:       RoleCustomer,
	ActionCreate:     RoleCustomer,
	ActionModify:     RoleStaff,
	ActionDestroy:    RoleAdmin,
	ActionAssignRole: RoleAdmin,
}

// Can evaluates one (principal, action, target) tuple. Default deny.
func Can(p Principal, action Action, target Target) bool {
	floor, known := capabilityFloors[action]
	if !known || !p.Role.Valid() {
		return false
	}
	if !p.Role.AtLeast(floor) {
		return false
	}
	if p.Role == RoleSuperAdmin {
		return true
	}
	return sameTenant(p, target)
}

// CanView reports whether p may read resources owned by target's tenant.
func CanView(p Principal, target Target) bool { return Can(p, ActionView, target) }

// CanCreate reports whether p may create resources under target's tenant.
func CanCreate(p Principal, target Target) bool { return Can(p, ActionCreate, target) }

// CanModify reports whether p may update resources owned by target's tenant.
func CanModify(p Principal, target Target) bool { return Can(p, ActionModify, target) }

// CanDestroy reports whether p may delete resources owned by target's tenant.
func CanDestroy(p Principal, target Target) bool { return Can(p, ActionDestroy, target) }

// CanAssignRole reports whether p may grant target.Role to a user in
// target's tenant. A caller may only assign roles strictly below their own.
func CanAssignRole(p Principal, target Target) bool {
	if !Can(p, ActionAssignRole, target) {
		return false
	}
	return p.Role.Above(target.Role)
}

func sameTenant(p Principal, target Target) bool {
	if p.TenantID == nil || target.TenantID == nil {
		return false
	}
	return *p.TenantID == *target.TenantID
}
