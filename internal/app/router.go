package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vivenda-app/vivenda/internal/assistant"
	"github.com/vivenda-app/vivenda/internal/auth"
	"github.com/vivenda-app/vivenda/internal/dashboard"
	"github.com/vivenda-app/vivenda/internal/favorites"
	"github.com/vivenda-app/vivenda/internal/finance"
	"github.com/vivenda-app/vivenda/internal/geo"
	"github.com/vivenda-app/vivenda/internal/nav"
	"github.com/vivenda-app/vivenda/internal/observability"
	"github.com/vivenda-app/vivenda/internal/posts"
	"github.com/vivenda-app/vivenda/internal/projects"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/users"
	"github.com/vivenda-app/vivenda/internal/view"
	"github.com/vivenda-app/vivenda/jobs"
	"github.com/vivenda-app/vivenda/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	DashboardHandler   *dashboard.Handler
	ProjectsHandler    *projects.Handler
	FinanceHandler     *finance.Handler
	GeoHandler         *geo.Handler
	FavoritesHandler   *favorites.Handler
	PostsHandler       *posts.Handler
	UsersHandler       *users.Handler
	AssistantHandler   *assistant.Handler
	NavHandler         *nav.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated visitors.
	r.Get("/bem-vindo", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "Vivenda",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/welcome.html", data); err != nil {
			params.Logger.Error("render welcome", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/bem-vindo", http.StatusSeeOther)
			return
		}
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		data := view.TemplateData{
			Title:     "Vivenda",
			CSRFToken: csrfToken,
			Flash:     sess.PopFlash(),
			Data: map[string]any{
				"AppEnv": params.Config.AppEnv,
			},
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	params.AuthHandler.MountRoutes(r)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	r.Route("/projetos", params.ProjectsHandler.MountRoutes)
	r.Route("/financeiro", params.FinanceHandler.MountRoutes)
	r.Route("/mapa", params.GeoHandler.MountRoutes)
	r.Route("/favoritos", params.FavoritesHandler.MountRoutes)
	r.Route("/posts", params.PostsHandler.MountRoutes)
	r.Route("/usuarios", params.UsersHandler.MountRoutes)
	r.Route("/assistente", params.AssistantHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Route("/projetos", params.ProjectsHandler.MountAPIRoutes)
		r.Route("/favoritos", params.FavoritesHandler.MountAPIRoutes)
		r.Route("/navegacao", params.NavHandler.MountRoutes)
		r.Route("/permissoes", params.PermissionsHandler.MountRoutes)
	})

	r.Route("/jobs", params.JobHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
