package main

import (
	"fmt"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/service"
	"github.com/blog-api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	cfg     *config.Config
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Blog API administration",
	Long: `blogctl runs maintenance tasks against the blog database and ranking.

It reads the same environment (and .env file) as the API server.

Example usage:
  blogctl migrate up                 # Apply all migrations
  blogctl createsuperuser -u admin   # Create an administrator
  blogctl flush-tokens               # Purge expired blacklisted tokens
  blogctl rebuild-ranking            # Rebuild the popular posts ranking`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		log = logger.NewWithLevel(level, true)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app holds the connections a command needs; close releases them
type app struct {
	db       *database.DB
	redis    *redis.Client
	services *service.Services
}

func openDB() (*database.DB, error) {
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// openApp connects to the database and ranking store and builds the services.
// Domain events are not published from the CLI.
func openApp() (*app, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}

	client, err := cache.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring redis: %w", err)
	}

	services, err := service.NewServices(repository.New(db), service.Dependencies{
		Tokens:  auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		Ranking: cache.NewRanking(client),
		Events:  events.NewNopPublisher(),
	}, cfg, log)
	if err != nil {
		client.Close()
		db.Close()
		return nil, err
	}

	return &app{db: db, redis: client, services: services}, nil
}

func (a *app) close() {
	a.redis.Close()
	a.db.Close()
}
