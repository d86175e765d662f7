package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Env is "development" or "production"
	Env string

	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (popular posts ranking)
	Redis RedisConfig

	// NATS configuration (domain events)
	NATS NATSConfig

	// Auth configuration
	Auth AuthConfig

	// Cache configuration
	Cache CacheConfig

	// Maintenance worker configuration
	Maintenance MaintenanceConfig

	// Logging configuration
	Log LogConfig

	MigrationsPath string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	LogQueries   bool
}

// RedisConfig holds the ranking store connection settings
type RedisConfig struct {
	URL string
}

// NATSConfig holds the event bus settings. An empty URL disables publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// CacheConfig holds in-process cache settings
type CacheConfig struct {
	PopularTTL  time.Duration
	PopularSize int
}

// MaintenanceConfig holds background worker settings
type MaintenanceConfig struct {
	Interval time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, after loading .env if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "production"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "blog"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			LogQueries:   getBoolEnv("DB_LOG_QUERIES", false),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "blog"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  getDurationEnv("JWT_ACCESS_TTL", 5*time.Minute),
			RefreshTokenTTL: getDurationEnv("JWT_REFRESH_TTL", 24*time.Hour),
		},
		Cache: CacheConfig{
			PopularTTL:  getDurationEnv("POPULAR_CACHE_TTL", 30*time.Second),
			PopularSize: getIntEnv("POPULAR_CACHE_SIZE", 16),
		},
		Maintenance: MaintenanceConfig{
			Interval: getDurationEnv("MAINTENANCE_INTERVAL", time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}

	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = "development-secret-change-me"
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
