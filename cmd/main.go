package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/faculty-games/cache"
	"github.com/Dosada05/faculty-games/config"
	"github.com/Dosada05/faculty-games/db"
	"github.com/Dosada05/faculty-games/events"
	"github.com/Dosada05/faculty-games/handlers"
	"github.com/Dosada05/faculty-games/repositories"
	api "github.com/Dosada05/faculty-games/routes"
	"github.com/Dosada05/faculty-games/services"
	"github.com/Dosada05/faculty-games/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	version, err := db.Migrate(dbConn)
	if err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

	// Кеш медального зачета (опционально)
	var tallyCache cache.TallyCache = cache.NoopTallyCache{}
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		tallyCache = cache.NewRedisTallyCache(redisClient, cfg.TallyCacheTTL)
		logger.Info("medal tally cache enabled", slog.Duration("ttl", cfg.TallyCacheTTL))
	}

	// Cloudflare R2 для логотипов (опционально)
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("Cloudflare R2 is not configured, logo uploads are disabled")
	}

	bus := events.NewBus(logger)
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Инициализация репозиториев
	facultyRepo := repositories.NewPostgresFacultyRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	artsRepo := repositories.NewPostgresArtsScoreRepository(dbConn)
	standingRepo := repositories.NewPostgresFacultyStandingRepository(dbConn)
	awardRepo := repositories.NewPostgresMedalAwardRepository(dbConn)
	tableRepo := repositories.NewPostgresTableStandingRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	tallyService := services.NewTallyService(dbConn, matchRepo, artsRepo, standingRepo, awardRepo, tallyCache, logger)
	matchService := services.NewMatchService(matchRepo, competitionRepo, bus, logger)
	artsService := services.NewArtsScoreService(dbConn, matchRepo, artsRepo, bus, logger)
	competitionService := services.NewCompetitionService(competitionRepo)
	tableService := services.NewTableStandingService(dbConn, competitionRepo, tableRepo, logger)
	facultyService := services.NewFacultyService(facultyRepo, uploader, logger)
	dashboardService := services.NewDashboardService(tallyService, matchService, competitionService)
	authService := services.NewAuthService(adminRepo, logger)

	if err = services.NewMedalEventHandler(tallyService, logger).Register(appCtx, bus); err != nil {
		logger.Error("failed to subscribe medal handlers", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Services initialized")

	if cfg.AdminEmail != "" {
		admin, created, err := authService.EnsureAdmin(appCtx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Error("failed to bootstrap admin account", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("admin account ready", slog.String("email", admin.Email), slog.Bool("created", created))
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Faculty:     handlers.NewFacultyHandler(facultyService),
		Competition: handlers.NewCompetitionHandler(competitionService, tableService),
		Match:       handlers.NewMatchHandler(matchService, artsService),
		Medal:       handlers.NewMedalHandler(tallyService),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
		Health:      handlers.NewHealthHandler(dbConn),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// Шину закрываем после сервера: в обработчиках могут быть незавершенные публикации.
	cancelApp()
	if err := bus.Close(); err != nil {
		logger.Error("failed to close event bus", slog.Any("error", err))
	}
	logger.Info("application exited")
}
