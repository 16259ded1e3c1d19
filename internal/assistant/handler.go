package assistant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/view"
)

// Enqueuer submits assistant prompts for background delivery.
type Enqueuer interface {
	EnqueueAssistantPrompt(ctx context.Context, userID, text string) error
}

// CheckerSource derives a capability view for the current user.
type CheckerSource interface {
	Checker(ctx context.Context, userID string) rbac.Checker
}

// Handler serves the assistant page and its fire-and-forget trigger.
type Handler struct {
	logger    *slog.Logger
	enqueuer  Enqueuer
	templates *view.Engine
	csrf      *shared.CSRFManager
	checkers  CheckerSource
	guard     rbac.Middleware
	nav       []rbac.NavItem
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, enqueuer Enqueuer, templates *view.Engine, csrf *shared.CSRFManager, checkers CheckerSource, guard rbac.Middleware, nav []rbac.NavItem) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, enqueuer: enqueuer, templates: templates, csrf: csrf, checkers: checkers, guard: guard, nav: nav}
}

// MountRoutes registers the assistant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermUseAssistant}))
		r.Get("/", h.page)
		r.Post("/", h.trigger)
	})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r)
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(r.PostFormValue("prompt"))
	sess := shared.SessionFromContext(r.Context())

	if text == "" {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Escreva uma pergunta para o assistente"})
		}
		http.Redirect(w, r, "/assistente", http.StatusSeeOther)
		return
	}

	userID := ""
	if sess != nil {
		userID = strings.TrimSpace(sess.User())
	}
	if err := h.enqueuer.EnqueueAssistantPrompt(r.Context(), userID, text); err != nil {
		h.logger.Error("enqueue assistant prompt", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Não foi possível enviar sua pergunta agora"})
		}
		http.Redirect(w, r, "/assistente", http.StatusSeeOther)
		return
	}
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Pergunta enviada, o assistente responderá em instantes"})
	}
	http.Redirect(w, r, "/assistente", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	userID := ""
	if sess != nil {
		flash = sess.PopFlash()
		userID = strings.TrimSpace(sess.User())
	}
	checker := h.checkers.Checker(r.Context(), userID)
	if err := h.templates.Render(w, "pages/assistente.html", view.TemplateData{
		Title:       "Assistente",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         checker.FilterNav(h.nav),
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
