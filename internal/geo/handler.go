package geo

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

// Handler serves the map page and the address autocomplete endpoint.
type Handler struct {
	logger    *slog.Logger
	geocoder  Geocoder
	templates *view.Engine
	csrf      *shared.CSRFManager
	checkers  CheckerSource
	guard     rbac.Middleware
	nav       []rbac.NavItem
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, geocoder Geocoder, templates *view.Engine, csrf *shared.CSRFManager, checkers CheckerSource, guard rbac.Middleware, nav []rbac.NavItem) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, geocoder: geocoder, templates: templates, csrf: csrf, checkers: checkers, guard: guard, nav: nav}
}

// MountRoutes registers map routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermViewMap}))
		r.Get("/", h.page)
		r.Get("/buscar", h.search)
	})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	userID := ""
	if sess != nil {
		flash = sess.PopFlash()
		userID = strings.TrimSpace(sess.User())
	}
	checker := h.checkers.Checker(r.Context(), userID)
	if err := h.templates.Render(w, "pages/mapa.html", view.TemplateData{
		Title:       "Mapa",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         checker.FilterNav(h.nav),
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

// search answers the autocomplete widget. Upstream failures degrade to an
// empty candidate list so the widget stays usable.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	candidates, err := h.geocoder.Search(r.Context(), query)
	if err != nil {
		h.logger.Warn("geocode search failed", slog.String("query", query), slog.Any("error", err))
		candidates = nil
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}
