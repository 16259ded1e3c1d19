package favorites

import (
	"context"
	"log/slog"
	"net/http"
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

// Handler serves the favorites page and JSON API.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	templates *view.Engine
	csrf      *shared.CSRFManager
	checkers  CheckerSource
	guard     rbac.Middleware
	nav       []rbac.NavItem
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, store *Store, templates *view.Engine, csrf *shared.CSRFManager, checkers CheckerSource, guard rbac.Middleware, nav []rbac.NavItem) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, templates: templates, csrf: csrf, checkers: checkers, guard: guard, nav: nav}
}

// MountRoutes registers the favorites pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermManageFavorites}))
		r.Get("/", h.page)
		r.Post("/{id}/remover", h.removeForm)
	})
}

// MountAPIRoutes registers the favorites JSON API.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermManageFavorites))
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) userID(r *http.Request) string {
	return shared.UserIDFromContext(r.Context())
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	items, err := h.store.List(r.Context(), h.userID(r))
	if err != nil {
		h.logger.Error("list favorites", slog.Any("error", err))
	}
	checker := h.checkers.Checker(r.Context(), h.userID(r))
	if err := h.templates.Render(w, "pages/favoritos.html", view.TemplateData{
		Title:       "Favoritos",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         checker.FilterNav(h.nav),
		Data:        map[string]any{"Items": items},
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) removeForm(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context(), h.userID(r), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("remove favorite", slog.Any("error", err))
	} else if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Favorito removido"})
	}
	http.Redirect(w, r, "/favoritos", http.StatusSeeOther)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context(), h.userID(r))
	if err != nil {
		h.logger.Error("list favorites", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := httpx.DecodeJSON(w, r, &item); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Title) == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id and title are required")
		return
	}
	if err := h.store.Add(r.Context(), h.userID(r), item); err != nil {
		h.logger.Error("add favorite", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context(), h.userID(r), chi.URLParam(r, "id")); err != nil {
		h.logger.Error("remove favorite", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
