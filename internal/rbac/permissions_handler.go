package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/shared"
)

// CheckerSource derives a capability view for the current user.
type CheckerSource interface {
	Checker(ctx context.Context, userID string) Checker
}

// PermissionsHandler exposes the current user's capabilities as JSON, so the
// frontend can hide controls the server would reject anyway.
type PermissionsHandler struct {
	logger   *slog.Logger
	checkers CheckerSource
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, checkers CheckerSource) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, checkers: checkers}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.current)
}

func (h *PermissionsHandler) current(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		userID = strings.TrimSpace(sess.User())
	}
	checker := h.checkers.Checker(r.Context(), userID)

	granted := make([]Permission, 0)
	for _, perm := range Permissions() {
		if checker.Can(perm) {
			granted = append(granted, perm)
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":        checker.Role(),
		"loading":     checker.IsLoading(),
		"permissions": granted,
	})
}
