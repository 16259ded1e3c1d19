package rbac

// Role is the authorization class assigned to a user profile.
// The zero value means "no role" and grants nothing.
type Role string

// Known roles. Every authenticated profile carries exactly one.
const (
	RoleNone     Role = ""
	RoleAdmin    Role = "admin"
	RoleDirector Role = "director"
	RoleEditor   Role = "editor"
	RoleUser     Role = "user"
)

// Permission is an atomic capability token. The set is fixed at build time.
type Permission string

const (
	PermViewDashboard   Permission = "view:dashboard"
	PermViewProjects    Permission = "view:projects"
	PermEditProjects    Permission = "edit:projects"
	PermViewFinance     Permission = "view:financeiro"
	PermViewMap         Permission = "view:map"
	PermCreatePosts     Permission = "create:posts"
	PermManageUsers     Permission = "manage:users"
	PermUseAssistant    Permission = "use:assistant"
	PermManageFavorites Permission = "manage:favorites"
)

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDirector, RoleEditor, RoleUser}
}

// Permissions lists the full capability enumeration.
func Permissions() []Permission {
	return []Permission{
		PermViewDashboard,
		PermViewProjects,
		PermEditProjects,
		PermViewFinance,
		PermViewMap,
		PermCreatePosts,
		PermManageUsers,
		PermUseAssistant,
		PermManageFavorites,
	}
}

// ValidRole reports whether the given value is an assignable role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDirector, RoleEditor, RoleUser:
		return true
	}
	return false
}

// NavItem is a static navigation descriptor, optionally permission gated.
type NavItem struct {
	Path               string     `json:"path"`
	Label              string     `json:"label"`
	Icon               string     `json:"icon"`
	RequiredPermission Permission `json:"required_permission,omitempty"`
}
