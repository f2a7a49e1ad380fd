package shared

// User roles.
const (
	RoleAdmin  = "admin"
	RoleTenant = "tenant"
)
