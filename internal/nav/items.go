package nav

import "github.com/vivenda-app/vivenda/internal/rbac"

// Items returns the sidebar navigation descriptors in display order.
// The slice is rebuilt per call so callers can never mutate the source.
func Items() []rbac.NavItem {
	return []rbac.NavItem{
		{Path: "/dashboard", Label: "Início", Icon: "home", RequiredPermission: rbac.PermViewDashboard},
		{Path: "/projetos", Label: "Projetos", Icon: "building", RequiredPermission: rbac.PermViewProjects},
		{Path: "/mapa", Label: "Mapa", Icon: "map", RequiredPermission: rbac.PermViewMap},
		{Path: "/financeiro", Label: "Financeiro", Icon: "wallet", RequiredPermission: rbac.PermViewFinance},
		{Path: "/posts", Label: "Novidades", Icon: "news", RequiredPermission: rbac.PermViewDashboard},
		{Path: "/favoritos", Label: "Favoritos", Icon: "star", RequiredPermission: rbac.PermManageFavorites},
		{Path: "/assistente", Label: "Assistente", Icon: "chat", RequiredPermission: rbac.PermUseAssistant},
		{Path: "/usuarios", Label: "Usuários", Icon: "users", RequiredPermission: rbac.PermManageUsers},
	}
}

// BottomItems returns the condensed bottom navigation used on small screens.
func BottomItems() []rbac.NavItem {
	return []rbac.NavItem{
		{Path: "/dashboard", Label: "Início", Icon: "home", RequiredPermission: rbac.PermViewDashboard},
		{Path: "/projetos", Label: "Projetos", Icon: "building", RequiredPermission: rbac.PermViewProjects},
		{Path: "/mapa", Label: "Mapa", Icon: "map", RequiredPermission: rbac.PermViewMap},
		{Path: "/favoritos", Label: "Favoritos", Icon: "star", RequiredPermission: rbac.PermManageFavorites},
	}
}
