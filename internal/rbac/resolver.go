package rbac

import "strings"

// Has reports whether the role's grant set contains the permission.
// An absent role never has any permission.
func (t Table) Has(role Role, perm Permission) bool {
	if role == RoleNone {
		return false
	}
	set, ok := t[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// HasPermission resolves against the default table.
func HasPermission(role Role, perm Permission) bool {
	return DefaultTable.Has(role, perm)
}

// RoutePermission returns the permission required for a path, keyed on its
// first segment. The second result is false when the path is unrestricted.
func RoutePermission(path string) (Permission, bool) {
	segment := strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(segment, '/'); idx >= 0 {
		segment = segment[:idx]
	}
	perm, ok := routePermissions[segment]
	return perm, ok
}

// CanAccessRoute reports whether the role may enter the route. Paths without
// a configured requirement are always accessible.
func (t Table) CanAccessRoute(role Role, path string) bool {
	perm, ok := RoutePermission(path)
	if !ok {
		return true
	}
	return t.Has(role, perm)
}

// CanAccessRoute resolves against the default table.
func CanAccessRoute(role Role, path string) bool {
	return DefaultTable.CanAccessRoute(role, path)
}

// FilterNavItems returns the order-preserving subsequence of items whose
// required permission is absent or granted to the role.
func (t Table) FilterNavItems(items []NavItem, role Role) []NavItem {
	filtered := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.RequiredPermission == "" || t.Has(role, item.RequiredPermission) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// FilterNavItems resolves against the default table.
func FilterNavItems(items []NavItem, role Role) []NavItem {
	return DefaultTable.FilterNavItems(items, role)
}
