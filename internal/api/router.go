// Package api assembles the HTTP router and its middleware chain.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"norelock.dev/reelid/backend/internal/api/handlers"
	appMiddleware "norelock.dev/reelid/backend/internal/api/middleware"
	"norelock.dev/reelid/backend/internal/auth"
	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/services/identify"
	"norelock.dev/reelid/backend/internal/services/search"
	"norelock.dev/reelid/backend/internal/services/system"
	"norelock.dev/reelid/backend/internal/services/user"
	"norelock.dev/reelid/backend/internal/storage"
	"norelock.dev/reelid/backend/internal/utils"
)

// Router is the chi mux with every route and middleware attached.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// RouterDeps bundles the services and repositories the router wires into
// handlers.
type RouterDeps struct {
	AuthProvider auth.Provider
	SessionMgr   *file.SessionManager
	UserManager  *user.Manager
	StatsService *user.StatsService
	IdentifySvc  *identify.Service
	SearchSvc    *search.Service
	HistoryRepo  repositories.HistoryRepository
	MovieRepo    repositories.MovieRepository
	HealthSvc    *system.HealthService
	MetricsSvc   *system.MetricsService
	Limiters     *utils.LimiterConfig
	Config       *config.Config
}

// NewRouter creates a new API router.
func NewRouter(deps RouterDeps, logger *utils.Logger) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	recoveryMiddleware := appMiddleware.NewRecoveryMiddleware(apiLogger)
	loggerMiddleware := appMiddleware.NewLoggerMiddleware(apiLogger)
	metricsMiddleware := appMiddleware.NewMetricsMiddleware(deps.MetricsSvc)
	corsMiddleware := appMiddleware.NewCORSMiddleware(corsConfig(deps.Config), apiLogger)
	authMiddleware := appMiddleware.NewAuthMiddleware(deps.AuthProvider, deps.SessionMgr, apiLogger)

	authHandler := handlers.NewAuthHandler(deps.UserManager, deps.MetricsSvc, apiLogger)
	userHandler := handlers.NewUserHandler(deps.UserManager, deps.StatsService, apiLogger)
	identifyHandler := handlers.NewIdentifyHandler(deps.IdentifySvc, storage.NewUploadPolicy(deps.Config), deps.MetricsSvc, apiLogger)
	searchHandler := handlers.NewSearchHandler(deps.SearchSvc, deps.MetricsSvc, apiLogger)
	historyHandler := handlers.NewHistoryHandler(deps.HistoryRepo, apiLogger)
	movieHandler := handlers.NewMovieHandler(deps.MovieRepo, apiLogger)
	providerHandler := handlers.NewProviderHandler(deps.IdentifySvc.Registry(), apiLogger)
	healthHandler := handlers.NewHealthHandler(deps.HealthSvc, apiLogger)

	// Recovery sits first so it also catches panics out of the other
	// middleware.
	r.Use(recoveryMiddleware.Recovery)
	r.Use(loggerMiddleware.Logger)
	r.Use(metricsMiddleware.Metrics)
	r.Use(corsMiddleware.CORS)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/ping"))

	// Operational endpoints outside the versioned API
	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)
	r.Method("GET", "/metrics", deps.MetricsSvc.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(utils.RateLimitMiddleware(deps.Limiters.API, utils.DefaultKeyFunc))

			r.Route("/auth", func(r chi.Router) {
				r.With(utils.RateLimitMiddleware(deps.Limiters.Register, utils.DefaultKeyFunc)).
					Post("/register", authHandler.Register)
				r.With(utils.RateLimitMiddleware(deps.Limiters.Login, utils.DefaultKeyFunc)).
					Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(utils.RateLimitMiddleware(deps.Limiters.API, utils.UserKeyFunc))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			// User routes
			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Put("/", userHandler.UpdateMe)
				r.Put("/password", userHandler.ChangePassword)
			})

			// Identification routes, limited separately because each request
			// costs an external AI call
			r.Route("/identify", func(r chi.Router) {
				r.Use(utils.RateLimitMiddleware(deps.Limiters.Identify, utils.UserKeyFunc))

				r.Post("/text", identifyHandler.Text)
				r.Post("/actor", identifyHandler.Actor)
				r.Post("/image", identifyHandler.Image)
				r.Post("/video", identifyHandler.Video)
			})

			// Web search routes
			r.With(utils.RateLimitMiddleware(deps.Limiters.WebSearch, utils.UserKeyFunc)).
				Get("/search/web", searchHandler.Web)

			// History routes
			r.Route("/history", func(r chi.Router) {
				r.Get("/", historyHandler.List)
				r.Delete("/", historyHandler.Clear)
				r.Delete("/{id}", WithID(historyHandler.DeleteEntry))
			})

			// Movie library routes
			r.Route("/movies", func(r chi.Router) {
				r.Get("/", movieHandler.List)
				r.Get("/{id}", WithID(movieHandler.Get))
				r.Delete("/{id}", WithID(movieHandler.Delete))
			})

			// Provider listing
			r.Get("/providers", providerHandler.List)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(authMiddleware.RequireRole("admin"))

			r.Post("/providers/configure", providerHandler.Configure)
			r.Put("/providers/active", providerHandler.SelectActive)
		})
	})

	return &Router{
		Mux:    r,
		logger: apiLogger,
	}
}

// corsConfig builds the CORS configuration from the application config.
func corsConfig(cfg *config.Config) appMiddleware.CORSConfig {
	corsCfg := appMiddleware.DefaultCORSConfig()
	if len(cfg.Auth.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.Auth.AllowedOrigins
	}
	return corsCfg
}
