package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/models"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB wraps the sql.DB connection and the gorm handle built on top of it
type DB struct {
	*sql.DB
	Gorm *gorm.DB
	log  zerolog.Logger
}

// New creates a new database connection with connection pooling
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	componentLog := log.With().Str("component", "database").Logger()

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), &gorm.Config{
		Logger: NewGormLogger(componentLog, cfg.LogQueries),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise orm: %w", err)
	}

	wrapper := &DB{
		DB:   db,
		Gorm: gdb,
		log:  componentLog,
	}

	wrapper.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connection established")

	return wrapper, nil
}

// Wrap builds a DB around an already opened gorm handle (used with SQLite in tests)
func Wrap(gdb *gorm.DB, log zerolog.Logger) (*DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	return &DB{
		DB:   sqlDB,
		Gorm: gdb,
		log:  log.With().Str("component", "database").Logger(),
	}, nil
}

func (db *DB) migrator(migrationsPath string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations executes all pending migrations using golang-migrate
func (db *DB) RunMigrations(migrationsPath string) error {
	db.log.Info().Str("path", migrationsPath).Msg("Running database migrations")

	m, err := db.migrator(migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	db.log.Info().
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Migrations completed")

	return nil
}

// MigrateDown rolls back the last migration
func (db *DB) MigrateDown(migrationsPath string) error {
	db.log.Info().Str("path", migrationsPath).Msg("Rolling back last migration")

	m, err := db.migrator(migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	db.log.Info().Msg("Migration rolled back")
	return nil
}

// MigrateToVersion migrates to a specific version
func (db *DB) MigrateToVersion(migrationsPath string, version uint) error {
	db.log.Info().Uint("version", version).Msg("Migrating to specific version")

	m, err := db.migrator(migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate to version %d: %w", version, err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// AutoMigrate creates the schema from the models. Production uses the SQL
// migrations; this is for throwaway databases.
func (db *DB) AutoMigrate() error {
	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.PostTag{},
		&models.PostLike{},
		&models.PostDislike{},
		&models.Comment{},
		&models.BlacklistedToken{},
	)
}
