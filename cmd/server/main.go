package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kidsvideohub/internal/config"
	"kidsvideohub/internal/database"
	"kidsvideohub/internal/handlers"
	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/metrics"
	"kidsvideohub/internal/notify"
	"kidsvideohub/internal/repository"
	"kidsvideohub/internal/resolver"
	"kidsvideohub/internal/security"
	"kidsvideohub/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LogLevel, "kidsvideohub")
	log := logging.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations completed successfully")

	store := repository.NewStore(db)

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry, db.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	// Short-link resolution and notifications
	cache := resolver.NewCache(cfg.RedisURL, resolver.DefaultCacheTTL)
	defer cache.Close()
	tiktok := resolver.NewTikTok(cfg.ResolverTimeout, cache)

	notifier, err := notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email notifications")
	}

	// Initialize services
	kidService := service.NewKidService(store, nil)
	folderService := service.NewFolderService(store, nil)
	videoService := service.NewVideoService(store, tiktok, kidService, nil)
	progressService := service.NewProgressService(store, kidService, notifier, nil)
	globalService := service.NewGlobalService(store, cfg.MasterUserID, nil)
	feedbackService := service.NewFeedbackService(store, nil)

	if globalService.Enabled() {
		log.Info().Str("master", cfg.MasterUserID).Msg("Global playlists enabled")
	}

	verifier, err := security.NewTokenVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token verifier")
	}
	limiter := security.NewRateLimiter(ctx, cfg.PublicRateLimit, cfg.PublicRateWindow)

	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(verifier, store.Accounts, limiter),
		Kids:       handlers.NewKidHandler(kidService),
		Folders:    handlers.NewFolderHandler(folderService),
		Videos:     handlers.NewVideoHandler(videoService, progressService, globalService),
		Global:     handlers.NewGlobalHandler(globalService),
		Feedback:   handlers.NewFeedbackHandler(feedbackService),
		Public:     handlers.NewPublicHandler(kidService, videoService, progressService),
		Metrics:    metrics.Handler(registry),
		DB:         db,
		Cache:      cache,
	}

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}
}
