package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/view"
)

// CheckerSource derives a capability view for the current user.
type CheckerSource interface {
	Checker(ctx context.Context, userID string) rbac.Checker
}

// Handler serves the users admin pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	checkers  CheckerSource
	guard     rbac.Middleware
	nav       []rbac.NavItem
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, checkers CheckerSource, guard rbac.Middleware, nav []rbac.NavItem) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, checkers: checkers, guard: guard, nav: nav}
}

// MountRoutes registers the users admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermManageUsers}))
		r.Get("/", h.list)
		r.Get("/novo", h.showForm)
		r.Post("/", h.create)
		r.Post("/{id}/perfil", h.changeRole)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	data := map[string]any{
		"Users":  accounts,
		"Roles":  rbac.Roles(),
		"Errors": map[string]string{},
	}
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		data["Errors"] = map[string]string{"general": shared.UserSafeMessage(err)}
	}
	h.render(w, r, "pages/usuarios/list.html", data, http.StatusOK)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/usuarios/form.html", map[string]any{
		"Form":   Input{Role: rbac.RoleUser},
		"Roles":  rbac.Roles(),
		"Errors": map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := Input{
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
		Role:     rbac.Role(r.PostFormValue("role")),
	}
	_, err := h.service.Create(r.Context(), in)
	if err != nil {
		msg := shared.UserSafeMessage(err)
		switch {
		case errors.Is(err, httpx.ErrDuplicate):
			msg = "Já existe um usuário com este email"
		case errors.Is(err, httpx.ErrValidation):
			msg = "Verifique os campos do formulário"
		}
		in.Password = ""
		h.render(w, r, "pages/usuarios/form.html", map[string]any{
			"Form":   in,
			"Roles":  rbac.Roles(),
			"Errors": map[string]string{"general": msg},
		}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/usuarios", "Usuário criado")
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	role := rbac.Role(r.PostFormValue("role"))
	if err := h.service.ChangeRole(r.Context(), id, role); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("change role", slog.Int64("user_id", id), slog.Any("error", err))
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: shared.UserSafeMessage(err)})
		}
		http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
		return
	}
	h.redirectWithFlash(w, r, "/usuarios", "Perfil atualizado")
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	userID := ""
	if sess != nil {
		flash = sess.PopFlash()
		userID = strings.TrimSpace(sess.User())
	}
	checker := h.checkers.Checker(r.Context(), userID)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, view.TemplateData{
		Title:       "Usuários",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         checker.FilterNav(h.nav),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
