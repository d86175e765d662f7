package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blog-api/internal/api"
	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/service"
	"github.com/blog-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format == "pretty")
	log.Info().Str("env", cfg.Env).Msg("Starting blog API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Popular posts ranking
	redisClient, err := cache.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure redis")
	}
	defer redisClient.Close()

	// Domain events
	publisher := events.NewNopPublisher()
	if cfg.NATS.URL != "" {
		publisher, err = events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		log.Info().Str("url", cfg.NATS.URL).Msg("Publishing domain events")
	}
	defer publisher.Close()

	// Initialize repositories and services
	repos := repository.New(db)
	services, err := service.NewServices(repos, service.Dependencies{
		Tokens:  auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		Ranking: cache.NewRanking(redisClient),
		Events:  publisher,
	}, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Start maintenance processor
	go services.Maintenance.StartProcessor(context.Background())
	log.Info().Dur("interval", cfg.Maintenance.Interval).Msg("Maintenance processor started")

	// Initialize router
	router := api.NewRouter(services, db, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop maintenance processor
	services.Maintenance.StopProcessor()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
