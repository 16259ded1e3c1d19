package nav_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivenda-app/vivenda/internal/nav"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
)

type fixedCheckers struct {
	role rbac.Role
}

func (f fixedCheckers) Checker(ctx context.Context, userID string) rbac.Checker {
	if userID == "" {
		return rbac.NewChecker(rbac.RoleNone, false)
	}
	return rbac.NewChecker(f.role, false)
}

func newNavRouter(t *testing.T, role rbac.Role) (http.Handler, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := nav.NewHandler(nil, fixedCheckers{role: role}, nav.NewBreadcrumbStore(client))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, client
}

func authedRequest(method, target, userID string, body *string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(*body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestSidebarFiltersByRole(t *testing.T) {
	router, _ := newNavRouter(t, rbac.RoleUser)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, authedRequest(http.MethodGet, "/", "8", nil))
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Items []rbac.NavItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))

	var paths []string
	for _, item := range payload.Items {
		paths = append(paths, item.Path)
	}
	assert.Equal(t, []string{"/dashboard", "/projetos", "/mapa", "/posts", "/favoritos"}, paths)
}

func TestSidebarForAnonymousIsEmpty(t *testing.T) {
	router, _ := newNavRouter(t, rbac.RoleAdmin)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, authedRequest(http.MethodGet, "/", "", nil))
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Items []rbac.NavItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Empty(t, payload.Items)
}

func TestBreadcrumbTrailUsesOverrides(t *testing.T) {
	overrides := map[string]string{"/projetos/12": "Creche Santa Luzia"}
	crumbs := nav.Trail("/projetos/12/editar", overrides)

	require.Len(t, crumbs, 3)
	assert.Equal(t, "Projetos", crumbs[0].Label)
	assert.Equal(t, "Creche Santa Luzia", crumbs[1].Label)
	assert.Equal(t, "editar", crumbs[2].Label)
}

func TestSetAndReadBreadcrumbOverride(t *testing.T) {
	router, _ := newNavRouter(t, rbac.RoleUser)

	body := `{"path":"/projetos/5","label":"Horta Comunitária"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, authedRequest(http.MethodPut, "/breadcrumbs", "8", &body))
	require.Equal(t, http.StatusNoContent, res.Code)

	res = httptest.NewRecorder()
	router.ServeHTTP(res, authedRequest(http.MethodGet, "/breadcrumbs?path=/projetos/5", "8", nil))
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Crumbs []nav.Crumb `json:"crumbs"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Len(t, payload.Crumbs, 2)
	assert.Equal(t, "Horta Comunitária", payload.Crumbs[1].Label)
}

func TestSetBreadcrumbRequiresAuth(t *testing.T) {
	router, _ := newNavRouter(t, rbac.RoleUser)

	body := `{"path":"/projetos/5","label":"x"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, authedRequest(http.MethodPut, "/breadcrumbs", "", &body))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
