package rbac

// Checker is a read-only capability view derived from the current role and
// the provider's loading state. It exposes no mutation.
type Checker struct {
	role    Role
	loading bool
	table   Table
}

// NewChecker derives a Checker for the given role.
func NewChecker(role Role, loading bool) Checker {
	return Checker{role: role, loading: loading, table: DefaultTable}
}

// Role returns the role the checker was derived from.
func (c Checker) Role() Role { return c.role }

// IsLoading reports whether the auth state is still resolving.
func (c Checker) IsLoading() bool { return c.loading }

// Can reports whether the current role grants the permission.
func (c Checker) Can(perm Permission) bool {
	return c.table.Has(c.role, perm)
}

// CanAccess reports whether the current role may enter the route.
func (c Checker) CanAccess(path string) bool {
	return c.table.CanAccessRoute(c.role, path)
}

// FilterNav filters nav items down to those the current role may see.
func (c Checker) FilterNav(items []NavItem) []NavItem {
	return c.table.FilterNavItems(items, c.role)
}

// Named shortcuts for the checks the UI performs on nearly every page.

func (c Checker) CanViewFinance() bool  { return c.Can(PermViewFinance) }
func (c Checker) CanEditProjects() bool { return c.Can(PermEditProjects) }
func (c Checker) CanCreatePosts() bool  { return c.Can(PermCreatePosts) }
func (c Checker) CanManageUsers() bool  { return c.Can(PermManageUsers) }
