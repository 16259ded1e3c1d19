package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vivenda-app/vivenda/internal/app"
	"github.com/vivenda-app/vivenda/internal/assistant"
	"github.com/vivenda-app/vivenda/internal/auth"
	"github.com/vivenda-app/vivenda/internal/authstate"
	"github.com/vivenda-app/vivenda/internal/dashboard"
	"github.com/vivenda-app/vivenda/internal/favorites"
	"github.com/vivenda-app/vivenda/internal/finance"
	"github.com/vivenda-app/vivenda/internal/geo"
	"github.com/vivenda-app/vivenda/internal/nav"
	"github.com/vivenda-app/vivenda/internal/observability"
	"github.com/vivenda-app/vivenda/internal/platform/cache"
	"github.com/vivenda-app/vivenda/internal/platform/db"
	"github.com/vivenda-app/vivenda/internal/posts"
	"github.com/vivenda-app/vivenda/internal/profiles"
	"github.com/vivenda-app/vivenda/internal/projects"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/users"
	"github.com/vivenda-app/vivenda/internal/view"
	"github.com/vivenda-app/vivenda/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "vivenda_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	profilesRepo := profiles.NewRepository(pool)
	profilesService := profiles.NewService(profilesRepo)

	provider := authstate.NewProvider(redisClient, profilesService, logger)
	if err := provider.Start(ctx); err != nil {
		logger.Error("start auth state provider", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warn("close auth state provider", slog.Any("error", err))
		}
	}()

	guard := rbac.Middleware{Roles: provider, Logger: logger}
	navItems := nav.Items()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, redisClient)

	projectsRepo := projects.NewRepository(pool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService, templates, csrfManager, provider, guard, navItems)

	financeRepo := finance.NewRepository(pool)
	financeClient := finance.NewClient(cfg.FinanceAPIURL)
	financeService := finance.NewService(logger, financeRepo, financeClient)
	financeHandler := finance.NewHandler(logger, financeService, templates, csrfManager, provider, guard, navItems)

	geocoder := geo.NewClient(cfg.GeocodeAPIURL, redisClient)
	geoHandler := geo.NewHandler(logger, geocoder, templates, csrfManager, provider, guard, navItems)

	favoritesStore := favorites.NewStore(redisClient)
	favoritesHandler := favorites.NewHandler(logger, favoritesStore, templates, csrfManager, provider, guard, navItems)

	postsRepo := posts.NewRepository(pool)
	postsService := posts.NewService(postsRepo)
	postsHandler := posts.NewHandler(logger, postsService, templates, csrfManager, provider, guard, navItems)

	dashboardService := dashboard.NewService(projectsRepo, financeService, postsService)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, provider, guard, navItems)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(logger, usersRepo, redisClient)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, provider, guard, navItems)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	assistantHandler := assistant.NewHandler(logger, jobsClient, templates, csrfManager, provider, guard, navItems)

	crumbs := nav.NewBreadcrumbStore(redisClient)
	navHandler := nav.NewHandler(logger, provider, crumbs)
	permissionsHandler := rbac.NewPermissionsHandler(logger, provider)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		DashboardHandler:   dashboardHandler,
		ProjectsHandler:    projectsHandler,
		FinanceHandler:     financeHandler,
		GeoHandler:         geoHandler,
		FavoritesHandler:   favoritesHandler,
		PostsHandler:       postsHandler,
		UsersHandler:       usersHandler,
		AssistantHandler:   assistantHandler,
		NavHandler:         navHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
