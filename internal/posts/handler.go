package posts

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

// Handler serves the community news feed.
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

// MountRoutes registers post routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermViewDashboard}))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermCreatePosts, Fallback: "/posts"}))
		r.Get("/novo", h.showForm)
		r.Post("/", h.create)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context(), 20)
	data := map[string]any{
		"Posts":     posts,
		"CanCreate": h.checker(r).CanCreatePosts(),
		"Errors":    map[string]string{},
	}
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		data["Errors"] = map[string]string{"general": shared.UserSafeMessage(err)}
	}
	h.render(w, r, "pages/posts/list.html", data, http.StatusOK)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/posts/form.html", map[string]any{
		"Form":   Input{},
		"Errors": map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := Input{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}

	sess := shared.SessionFromContext(r.Context())
	var authorID int64
	if sess != nil {
		authorID, _ = strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64)
	}

	_, err := h.service.Create(r.Context(), authorID, in)
	if err != nil {
		msg := shared.UserSafeMessage(err)
		if errors.Is(err, httpx.ErrValidation) {
			msg = "Verifique os campos do formulário"
		}
		h.render(w, r, "pages/posts/form.html", map[string]any{
			"Form":   in,
			"Errors": map[string]string{"general": msg},
		}, http.StatusBadRequest)
		return
	}
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Publicação criada"})
	}
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

func (h *Handler) checker(r *http.Request) rbac.Checker {
	sess := shared.SessionFromContext(r.Context())
	userID := ""
	if sess != nil {
		userID = strings.TrimSpace(sess.User())
	}
	return h.checkers.Checker(r.Context(), userID)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, view.TemplateData{
		Title:       "Novidades",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         h.checker(r).FilterNav(h.nav),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
