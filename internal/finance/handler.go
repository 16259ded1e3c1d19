package finance

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/view"
)

// CheckerSource derives a capability view for the current user.
type CheckerSource interface {
	Checker(ctx context.Context, userID string) rbac.Checker
}

// Handler serves the finance page and the manual sync trigger.
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

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermViewFinance}))
		r.Get("/", h.overview)
		r.Post("/sincronizar", h.sync)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	summary, entries, err := h.service.Overview(r.Context(), 50)
	if err != nil {
		h.logger.Error("finance overview", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, map[string]any{
		"Summary": summary,
		"Entries": entries,
	})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	result, err := h.service.Sync(r.Context())
	if sess != nil {
		if err != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Não foi possível sincronizar com o sistema financeiro"})
		} else {
			sess.AddFlash(shared.FlashMessage{
				Kind:    "success",
				Message: syncMessage(result),
			})
		}
	}
	http.Redirect(w, r, "/financeiro", http.StatusSeeOther)
}

func syncMessage(result SyncResult) string {
	if result.Imported == 0 {
		return "Sincronização concluída, nenhum lançamento novo"
	}
	if result.Imported == 1 {
		return "Sincronização concluída, 1 lançamento importado"
	}
	return fmt.Sprintf("Sincronização concluída, %d lançamentos importados", result.Imported)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	userID := ""
	if sess != nil {
		userID = strings.TrimSpace(sess.User())
	}
	checker := h.checkers.Checker(r.Context(), userID)
	if err := h.templates.Render(w, "pages/financeiro.html", view.TemplateData{
		Title:       "Financeiro",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         checker.FilterNav(h.nav),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
