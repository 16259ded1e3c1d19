package rbac

// Table maps each role to its granted permission set.
type Table map[Role]map[Permission]struct{}

// NewTable builds a Table from role grant lists.
func NewTable(grants map[Role][]Permission) Table {
	t := make(Table, len(grants))
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		t[role] = set
	}
	return t
}

// DefaultTable is the static role → permission mapping. Admin is built from
// the full enumeration so its set is a superset of every other role's.
var DefaultTable = NewTable(map[Role][]Permission{
	RoleAdmin: Permissions(),
	RoleDirector: {
		PermViewDashboard,
		PermViewProjects,
		PermViewFinance,
		PermViewMap,
		PermUseAssistant,
		PermManageFavorites,
	},
	RoleEditor: {
		PermViewDashboard,
		PermViewProjects,
		PermEditProjects,
		PermCreatePosts,
		PermViewMap,
		PermUseAssistant,
		PermManageFavorites,
	},
	RoleUser: {
		PermViewDashboard,
		PermViewProjects,
		PermViewMap,
		PermManageFavorites,
	},
})

// routePermissions keys on the first path segment of a route. Segments with
// no entry are accessible to everyone, including anonymous visitors.
var routePermissions = map[string]Permission{
	"dashboard":  PermViewDashboard,
	"projetos":   PermViewProjects,
	"financeiro": PermViewFinance,
	"mapa":       PermViewMap,
	"posts":      PermViewDashboard,
	"usuarios":   PermManageUsers,
	"assistente": PermUseAssistant,
	"favoritos":  PermManageFavorites,
}
