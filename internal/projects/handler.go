package projects

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

// Handler manages project pages and the JSON listing used by the map.
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

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermViewProjects}))
		r.Get("/", h.list)
		r.Get("/{id}", h.detail)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Guard(rbac.GuardConfig{Permission: rbac.PermEditProjects, Fallback: "/projetos"}))
		r.Get("/novo", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/editar", h.showEditForm)
		r.Post("/{id}", h.update)
	})
}

// MountAPIRoutes registers the JSON endpoints consumed by the map view.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermViewProjects))
		r.Get("/", h.listJSON)
	})
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	projects, pagination, err := h.service.List(r.Context(), status, page, 20)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		h.render(w, r, "pages/projetos/list.html", map[string]any{
			"Errors": formErrors{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/projetos/list.html", map[string]any{
		"Projects":   projects,
		"Pagination": pagination,
		"CanEdit":    h.checker(r).CanEditProjects(),
	}, http.StatusOK)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get project", slog.Int64("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/projetos/detail.html", map[string]any{
		"Project": project,
		"CanEdit": h.checker(r).CanEditProjects(),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/projetos/form.html", map[string]any{
		"Project":  &Project{Status: StatusPlanning},
		"Statuses": Statuses(),
		"Errors":   formErrors{},
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := parseForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	project, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.renderFormError(w, r, &Project{}, in, err)
		return
	}
	h.redirectWithFlash(w, r, "/projetos/"+strconv.FormatInt(project.ID, 10), "success", "Projeto criado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/projetos/form.html", map[string]any{
		"Project":  project,
		"Statuses": Statuses(),
		"Errors":   formErrors{},
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	in, err := parseForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	project, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderFormError(w, r, &Project{ID: id}, in, err)
		return
	}
	h.redirectWithFlash(w, r, "/projetos/"+strconv.FormatInt(project.ID, 10), "success", "Projeto atualizado")
}

func (h *Handler) listJSON(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.Located(r.Context())
	if err != nil {
		h.logger.Error("list located projects", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, project *Project, in Input, err error) {
	msg := shared.UserSafeMessage(err)
	switch {
	case errors.Is(err, httpx.ErrDuplicate):
		msg = "Já existe um projeto com este código"
	case errors.Is(err, httpx.ErrValidation):
		msg = "Verifique os campos do formulário"
	}
	project.Code = in.Code
	project.Name = in.Name
	project.Description = in.Description
	project.Status = in.Status
	project.City = in.City
	project.Address = in.Address
	project.BudgetCents = in.BudgetCents
	project.Progress = in.Progress
	h.render(w, r, "pages/projetos/form.html", map[string]any{
		"Project":  project,
		"Statuses": Statuses(),
		"Errors":   formErrors{"general": msg},
	}, http.StatusBadRequest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Projetos",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         h.checker(r).FilterNav(h.nav),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handler) checker(r *http.Request) rbac.Checker {
	sess := shared.SessionFromContext(r.Context())
	userID := ""
	if sess != nil {
		userID = strings.TrimSpace(sess.User())
	}
	return h.checkers.Checker(r.Context(), userID)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseForm(r *http.Request) (Input, error) {
	if err := r.ParseForm(); err != nil {
		return Input{}, err
	}
	budget, _ := strconv.ParseInt(r.PostFormValue("budget_cents"), 10, 64)
	progress, _ := strconv.Atoi(r.PostFormValue("progress"))
	in := Input{
		Code:        r.PostFormValue("code"),
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Status:      Status(r.PostFormValue("status")),
		City:        r.PostFormValue("city"),
		Address:     r.PostFormValue("address"),
		BudgetCents: budget,
		Progress:    progress,
	}
	if lat := r.PostFormValue("latitude"); lat != "" {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			in.Latitude = &v
		}
	}
	if lon := r.PostFormValue("longitude"); lon != "" {
		if v, err := strconv.ParseFloat(lon, 64); err == nil {
			in.Longitude = &v
		}
	}
	return in, nil
}
