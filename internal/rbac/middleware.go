package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/shared"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// DefaultDenialMessage is shown when a permission check fails.
const DefaultDenialMessage = "Você não tem permissão para acessar esta página"

// RoleSource resolves the role for an authenticated user ID.
type RoleSource interface {
	RoleForUser(ctx context.Context, userID string) (Role, error)
}

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Roles  RoleSource
	Logger *slog.Logger
}

// GuardConfig parameterizes a page guard.
type GuardConfig struct {
	// Permission required to view the page. Empty means authentication only.
	Permission Permission
	// Fallback is where unauthorized users are redirected. Defaults to "/".
	Fallback string
	// Message is the denial notification. Defaults to DefaultDenialMessage.
	Message string
}

type authStatus int

const (
	statusUnauthenticated authStatus = iota
	statusUnauthorized
	statusAuthorized
)

// Guard protects a page route. Unauthenticated visitors are redirected to the
// login page; authenticated users lacking the permission get one denial flash
// and are redirected to the fallback path. 303 is used so the browser
// replaces the navigation instead of re-posting into the guarded page.
func (m Middleware) Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.Fallback == "" {
		cfg.Fallback = "/"
	}
	if cfg.Message == "" {
		cfg.Message = DefaultDenialMessage
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch m.evaluate(r, cfg.Permission) {
			case statusUnauthenticated:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case statusUnauthorized:
				if sess := shared.SessionFromContext(r.Context()); sess != nil {
					sess.AddFlash(shared.FlashMessage{Kind: "error", Message: cfg.Message})
				}
				http.Redirect(w, r, cfg.Fallback, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAny protects an API route: the user must hold at least one of the
// given permissions. Responds with RFC7807 problems instead of redirects.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, authenticated := m.currentRole(r)
			if !authenticated {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			for _, p := range perms {
				if HasPermission(role, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

func (m Middleware) evaluate(r *http.Request, perm Permission) authStatus {
	role, authenticated := m.currentRole(r)
	if !authenticated {
		return statusUnauthenticated
	}
	if perm != "" && !HasPermission(role, perm) {
		return statusUnauthorized
	}
	return statusAuthorized
}

// currentRole resolves the session user's role. Resolution errors degrade to
// "no role": the user stays authenticated but holds no permissions.
func (m Middleware) currentRole(r *http.Request) (Role, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return RoleNone, false
	}
	userID := strings.TrimSpace(sess.User())
	if userID == "" {
		return RoleNone, false
	}
	if m.Roles == nil {
		return RoleNone, true
	}
	role, err := m.Roles.RoleForUser(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("resolve role", slog.String("user_id", userID), slog.Any("error", err))
		}
		return RoleNone, true
	}
	return role, true
}
