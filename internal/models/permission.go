package models

// Role is the position a user holds on a single property. Roles are not a
// strict hierarchy; each maps to its own permission set below.
type Role string

const (
	RoleOwner                  Role = "owner"
	RolePropertyManager        Role = "property_manager"
	RoleLeasingAgent           Role = "leasing_agent"
	RoleMaintenanceCoordinator Role = "maintenance_coordinator"
	RoleViewer                 Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RolePropertyManager, RoleLeasingAgent, RoleMaintenanceCoordinator, RoleViewer:
		return true
	}
	return false
}

// Permission is a closed set; anything outside it is denied by Permits.
type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermEditProperty      Permission = "edit_property"
	PermManageTenants     Permission = "manage_tenants"
	PermManageMaintenance Permission = "manage_maintenance"
	PermViewProperty      Permission = "view_property"
	PermCreateProperty    Permission = "create_property"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleOwner: {
		PermManageUsers:       true,
		PermEditProperty:      true,
		PermManageTenants:     true,
		PermManageMaintenance: true,
		PermViewProperty:      true,
		PermCreateProperty:    true,
	},
	RolePropertyManager: {
		PermEditProperty:      true,
		PermManageTenants:     true,
		PermManageMaintenance: true,
		PermViewProperty:      true,
	},
	RoleLeasingAgent: {
		PermManageTenants: true,
		PermViewProperty:  true,
	},
	RoleMaintenanceCoordinator: {
		PermManageMaintenance: true,
		PermViewProperty:      true,
	},
	RoleViewer: {
		PermViewProperty: true,
	},
}

// Permits reports whether role carries permission. Unknown roles and unknown
// permission names always answer false.
func Permits(role Role, permission Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return perms[permission]
}

// PermitsWithOverrides widens the matrix answer with per-grant overrides: an
// override set to true adds a permission the role lacks, an override set to
// false changes nothing. Every permission check routes through here.
func PermitsWithOverrides(role Role, overrides map[Permission]bool, permission Permission) bool {
	if Permits(role, permission) {
		return true
	}
	return overrides[permission]
}

// AllPermissions lists the enumerated permission names, for iteration in
// matrix-wide checks.
func AllPermissions() []Permission {
	return []Permission{
		PermManageUsers,
		PermEditProperty,
		PermManageTenants,
		PermManageMaintenance,
		PermViewProperty,
		PermCreateProperty,
	}
}

// AllRoles lists the enumerated roles.
func AllRoles() []Role {
	return []Role{
		RoleOwner,
		RolePropertyManager,
		RoleLeasingAgent,
		RoleMaintenanceCoordinator,
		RoleViewer,
	}
}
