package dashboard

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vivenda-app/vivenda/internal/dashboard/svg"
	"github.com/vivenda-app/vivenda/internal/projects"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/view"
)

// CheckerSource derives a capability view for the current user.
type CheckerSource interface {
	Checker(ctx context.Context, userID string) rbac.Checker
}

// Handler serves the dashboard page.
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

// MountRoutes registers the dashboard page.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermViewDashboard}))
		r.Get("/", h.page)
	})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	statusChart := statusChart(data.StatusCounts)
	progressChart := progressChart(data.Progress)

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	userID := ""
	if sess != nil {
		flash = sess.PopFlash()
		userID = strings.TrimSpace(sess.User())
	}
	checker := h.checkers.Checker(r.Context(), userID)
	if err := h.templates.Render(w, "pages/dashboard.html", view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         checker.FilterNav(h.nav),
		Data: map[string]any{
			"Summary":       data.Summary,
			"StatusChart":   statusChart,
			"ProgressChart": progressChart,
		},
	}); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func statusChart(counts []projects.StatusCount) template.HTML {
	byStatus := map[projects.Status]int{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	var series []float64
	var labels []string
	for _, status := range projects.Statuses() {
		series = append(series, float64(byStatus[status]))
		labels = append(labels, projects.StatusLabel(status))
	}
	chart, err := svg.Bars(640, 220, series, labels, svg.Opts{
		Title:       "Projetos por situação",
		Description: "Quantidade de projetos em cada situação",
	})
	if err != nil {
		return ""
	}
	return chart
}

func progressChart(points []projects.ProgressPoint) template.HTML {
	if len(points) == 0 {
		return ""
	}
	series := make([]float64, 0, len(points))
	labels := make([]string, 0, len(points))
	for _, p := range points {
		series = append(series, p.Average)
		labels = append(labels, p.Month)
	}
	chart, err := svg.Line(640, 220, series, labels, svg.Opts{
		Title:       "Progresso médio",
		Description: "Evolução mensal do progresso médio das obras",
	})
	if err != nil {
		return ""
	}
	return chart
}
