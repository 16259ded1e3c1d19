package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsentRoleHasNothing(t *testing.T) {
	for _, perm := range Permissions() {
		assert.False(t, HasPermission(RoleNone, perm), "absent role must never hold %s", perm)
	}
}

func TestAdminIsSupersetOfEveryRole(t *testing.T) {
	for _, role := range Roles() {
		for perm := range DefaultTable[role] {
			assert.True(t, HasPermission(RoleAdmin, perm), "admin missing %s granted to %s", perm, role)
		}
	}
}

func TestTableIsClosedOverEnumeration(t *testing.T) {
	known := make(map[Permission]struct{})
	for _, perm := range Permissions() {
		known[perm] = struct{}{}
	}
	for role, set := range DefaultTable {
		for perm := range set {
			_, ok := known[perm]
			require.True(t, ok, "role %s grants unknown permission %s", role, perm)
		}
	}
}

func TestHasPermissionIsDeterministic(t *testing.T) {
	first := HasPermission(RoleEditor, PermEditProjects)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, HasPermission(RoleEditor, PermEditProjects))
	}
}

func TestCanAccessRoute(t *testing.T) {
	cases := []struct {
		role Role
		path string
		want bool
	}{
		{RoleUser, "/financeiro/resumo", false},
		{RoleDirector, "/financeiro/resumo", true},
		{RoleNone, "/dashboard", false},
		{RoleNone, "/login", true},
		{RoleNone, "/sobre", true},
		{RoleUser, "/projetos/12", true},
		{RoleUser, "/usuarios", false},
		{RoleAdmin, "/usuarios/novo", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanAccessRoute(tc.role, tc.path), "%s on %s", tc.role, tc.path)
	}
}

func TestFilterNavItemsPreservesOrder(t *testing.T) {
	items := []NavItem{
		{Path: "/dashboard", Label: "Início", RequiredPermission: PermViewDashboard},
		{Path: "/sobre", Label: "Sobre"},
		{Path: "/financeiro", Label: "Financeiro", RequiredPermission: PermViewFinance},
		{Path: "/usuarios", Label: "Usuários", RequiredPermission: PermManageUsers},
	}

	got := FilterNavItems(items, RoleUser)
	require.Len(t, got, 2)
	assert.Equal(t, "/dashboard", got[0].Path)
	assert.Equal(t, "/sobre", got[1].Path)

	// No required permission means the item survives even with no role.
	anon := FilterNavItems(items, RoleNone)
	require.Len(t, anon, 1)
	assert.Equal(t, "/sobre", anon[0].Path)
}

func TestEditorScenario(t *testing.T) {
	// A table granting the editor only two capabilities.
	table := NewTable(map[Role][]Permission{
		RoleEditor: {PermEditProjects, PermCreatePosts},
	})

	assert.False(t, table.Has(RoleEditor, PermManageUsers))
	assert.True(t, table.Has(RoleEditor, PermEditProjects))

	items := []NavItem{
		{Path: "/projetos/editar", RequiredPermission: PermEditProjects},
		{Path: "/posts/novo", RequiredPermission: PermCreatePosts},
		{Path: "/financeiro", RequiredPermission: PermViewFinance},
	}
	got := table.FilterNavItems(items, RoleEditor)
	require.Len(t, got, 2)
	assert.Equal(t, "/projetos/editar", got[0].Path)
	assert.Equal(t, "/posts/novo", got[1].Path)
}

func TestCheckerShortcuts(t *testing.T) {
	editor := NewChecker(RoleEditor, false)
	assert.True(t, editor.CanEditProjects())
	assert.True(t, editor.CanCreatePosts())
	assert.False(t, editor.CanManageUsers())
	assert.False(t, editor.CanViewFinance())
	assert.False(t, editor.IsLoading())

	loading := NewChecker(RoleNone, true)
	assert.True(t, loading.IsLoading())
	assert.False(t, loading.Can(PermViewDashboard))
}
