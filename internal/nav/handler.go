package nav

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
)

// CheckerSource derives a capability view for the current user.
type CheckerSource interface {
	Checker(ctx context.Context, userID string) rbac.Checker
}

// Handler serves the permission-filtered navigation and breadcrumb APIs.
type Handler struct {
	logger   *slog.Logger
	checkers CheckerSource
	crumbs   *BreadcrumbStore
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, checkers CheckerSource, crumbs *BreadcrumbStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, checkers: checkers, crumbs: crumbs}
}

// MountRoutes registers navigation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.sidebar)
	r.Get("/rodape", h.bottom)
	r.Get("/breadcrumbs", h.breadcrumbs)
	r.Put("/breadcrumbs", h.setBreadcrumb)
	r.Delete("/breadcrumbs", h.clearBreadcrumb)
}

func (h *Handler) sidebar(w http.ResponseWriter, r *http.Request) {
	checker := h.checker(r)
	httpx.JSON(w, http.StatusOK, map[string]any{"items": checker.FilterNav(Items())})
}

func (h *Handler) bottom(w http.ResponseWriter, r *http.Request) {
	checker := h.checker(r)
	httpx.JSON(w, http.StatusOK, map[string]any{"items": checker.FilterNav(BottomItems())})
}

func (h *Handler) breadcrumbs(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	overrides := map[string]string{}
	if userID := h.userID(r); userID != "" {
		var err error
		overrides, err = h.crumbs.Overrides(r.Context(), userID)
		if err != nil {
			h.logger.Warn("load breadcrumb overrides", slog.Any("error", err))
			overrides = map[string]string{}
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"crumbs": Trail(path, overrides)})
}

type breadcrumbRequest struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

func (h *Handler) setBreadcrumb(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req breadcrumbRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Path == "" || req.Label == "" {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.crumbs.SetOverride(r.Context(), userID, req.Path, req.Label); err != nil {
		h.logger.Error("set breadcrumb override", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearBreadcrumb(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.crumbs.ClearOverride(r.Context(), userID, path); err != nil {
		h.logger.Error("clear breadcrumb override", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checker(r *http.Request) rbac.Checker {
	return h.checkers.Checker(r.Context(), h.userID(r))
}

func (h *Handler) userID(r *http.Request) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return ""
	}
	return strings.TrimSpace(sess.User())
}
