package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"norelock.dev/reelid/backend/internal/api"
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

// version identifies the running build in health responses.
const version = "1.0.0"

// CombinedAuthProvider joins the JWT and password providers into the full
// auth.Provider interface.
type CombinedAuthProvider struct {
	*auth.JWTProvider
	*auth.PasswordProvider
}

func main() {
	// "server init-config" writes the config templates and exits.
	if len(os.Args) > 1 && os.Args[1] == "init-config" {
		if err := config.WriteDefaultConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config templates: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config templates written to ./configs")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(utils.LoggerOptions{
		Development:      cfg.Environment == "development",
		Level:            config.GetLogLevel(cfg.Logging.Level),
		OutputPaths:      cfg.Logging.OutputPaths,
		ErrorOutputPaths: cfg.Logging.ErrorOutputPaths,
	})
	logger.Info("Starting ReelID server", "environment", cfg.Environment)

	// Questionable configuration values are fixed in place and reported.
	for _, warning := range config.ValidateAndFixConfig(cfg) {
		logger.Warn("Configuration adjusted", "warning", warning)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", err)
	}
}

// run wires the services together and blocks until the context is cancelled
// or the HTTP server dies.
func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	store, err := file.NewStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize data store: %w", err)
	}

	userRepo, err := repositories.NewUserRepository(store, logger)
	if err != nil {
		return fmt.Errorf("initialize user repository: %w", err)
	}
	historyRepo, err := repositories.NewHistoryRepository(store, logger)
	if err != nil {
		return fmt.Errorf("initialize history repository: %w", err)
	}
	movieRepo, err := repositories.NewMovieRepository(store, logger)
	if err != nil {
		return fmt.Errorf("initialize movie repository: %w", err)
	}

	// The expiry bounds how long an idle session survives; each refresh
	// extends it.
	sessionMgr, err := file.NewSessionManager(store, cfg.Auth.RefreshTokenExpiry)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}

	authProvider := &CombinedAuthProvider{
		JWTProvider: auth.NewJWTProvider(auth.JWTConfig{
			Secret:               cfg.Auth.JWTSecret,
			Issuer:               "reelid",
			Audience:             "reelid-users",
			AccessTokenDuration:  cfg.Auth.AccessTokenExpiry,
			RefreshTokenDuration: cfg.Auth.RefreshTokenExpiry,
		}, logger),
		PasswordProvider: auth.NewPasswordProvider(cfg.Auth.BcryptCost, logger),
	}

	uploadStore, err := storage.NewLocalStorage(cfg.Storage.UploadDir, logger)
	if err != nil {
		return fmt.Errorf("initialize upload storage: %w", err)
	}

	registry := identify.NewRegistry(cfg, logger)
	identifySvc := identify.NewService(registry, uploadStore, storage.NewUploadPolicy(cfg), historyRepo, movieRepo, cfg, logger)

	searchSvc, err := search.NewService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize web search service: %w", err)
	}

	userManager := user.NewManager(userRepo, sessionMgr, authProvider, cfg, logger)
	statsService := user.NewStatsService(historyRepo, movieRepo, logger)

	metricsService := system.NewMetricsService(logger)
	healthService := system.NewHealthService(store, registry, searchSvc, cfg, version, logger)

	maintenanceConfig := system.DefaultMaintenanceConfig()
	maintenanceConfig.UploadDir = cfg.Storage.UploadDir
	maintenanceService := system.NewMaintenanceService(maintenanceConfig, historyRepo, userRepo, sessionMgr, metricsService, logger)

	limiters := utils.NewDefaultLimiterConfig()
	stopLimiterCleanup := limiters.StartCleanupRoutines(ctx)
	defer stopLimiterCleanup()

	router := api.NewRouter(api.RouterDeps{
		AuthProvider: authProvider,
		SessionMgr:   sessionMgr,
		UserManager:  userManager,
		StatsService: statsService,
		IdentifySvc:  identifySvc,
		SearchSvc:    searchSvc,
		HistoryRepo:  historyRepo,
		MovieRepo:    movieRepo,
		HealthSvc:    healthService,
		MetricsSvc:   metricsService,
		Limiters:     limiters,
		Config:       cfg,
	}, logger)

	if err := maintenanceService.Start(ctx); err != nil {
		logger.Error("Failed to start maintenance service", err)
	}
	healthService.Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", server.Addr, "https", cfg.Server.UseHTTPS)
		if cfg.Server.UseHTTPS {
			serveErr <- server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
			return
		}
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}

	maintenanceService.Stop()

	logger.Info("Server shutdown complete")
	return nil
}
