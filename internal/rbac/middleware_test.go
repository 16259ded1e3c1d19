package rbac_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
)

type staticRoles struct {
	role rbac.Role
	err  error
}

func (s staticRoles) RoleForUser(ctx context.Context, userID string) (rbac.Role, error) {
	return s.role, s.err
}

func guardedRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for anonymous visitor")
	})

	res := httptest.NewRecorder()
	mw.Guard(rbac.GuardConfig{Permission: rbac.PermManageUsers})(next).ServeHTTP(res, guardedRequest(t, ""))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != rbac.LoginPath {
		t.Fatalf("expected redirect to %s, got %s", rbac.LoginPath, loc)
	}
}

func TestGuardDeniesWithSingleFlash(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{role: rbac.RoleUser}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without permission")
	})

	req := guardedRequest(t, "42")
	res := httptest.NewRecorder()
	mw.Guard(rbac.GuardConfig{Permission: rbac.PermManageUsers, Fallback: "/dashboard"})(next).ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected fallback redirect, got %s", loc)
	}
	sess := shared.SessionFromContext(req.Context())
	first := sess.PopFlash()
	if first == nil || first.Message != rbac.DefaultDenialMessage {
		t.Fatalf("expected denial flash, got %+v", first)
	}
	if second := sess.PopFlash(); second != nil {
		t.Fatalf("expected exactly one flash, got a second: %+v", second)
	}
}

func TestGuardAllowsAuthorized(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{role: rbac.RoleAdmin}}
	ran := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })

	res := httptest.NewRecorder()
	mw.Guard(rbac.GuardConfig{Permission: rbac.PermManageUsers})(next).ServeHTTP(res, guardedRequest(t, "1"))

	if !ran {
		t.Fatal("expected handler to run")
	}
}

func TestGuardTreatsRoleLookupErrorAsDenial(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{err: errors.New("profile store down")}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when role cannot be resolved")
	})

	res := httptest.NewRecorder()
	mw.Guard(rbac.GuardConfig{Permission: rbac.PermViewFinance})(next).ServeHTTP(res, guardedRequest(t, "7"))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected denial redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected default fallback, got %s", loc)
	}
}

func TestRequireAnyRespondsWithProblems(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	anon := rbac.Middleware{Roles: staticRoles{}}
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/usuarios", nil)
	anon.RequireAny(rbac.PermManageUsers)(next).ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", res.Code)
	}

	denied := rbac.Middleware{Roles: staticRoles{role: rbac.RoleUser}}
	res = httptest.NewRecorder()
	denied.RequireAny(rbac.PermManageUsers)(next).ServeHTTP(res, guardedRequest(t, "9"))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", res.Code)
	}

	allowed := rbac.Middleware{Roles: staticRoles{role: rbac.RoleAdmin}}
	res = httptest.NewRecorder()
	allowed.RequireAny(rbac.PermManageUsers)(next).ServeHTTP(res, guardedRequest(t, "9"))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run for admin, got %d", res.Code)
	}
}
