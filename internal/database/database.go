// Package database owns the blog's single shared store handle.
//
// The handle is opened lazily from DATABASE_URL on first use. When no URL is
// configured, or the first connection attempt fails, the accessor hands out a
// nil *gorm.DB for the rest of the process lifetime and callers fall back to
// their empty results.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"blog/internal/config"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/observability"

	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnavailable is returned by operations that require a store when none is reachable.
var ErrUnavailable = errors.New("database not available")

// Accessor lazily opens and shares one *gorm.DB. It is safe for concurrent use.
type Accessor struct {
	dsn     string
	migrate bool

	once sync.Once
	db   *gorm.DB
}

// NewAccessor returns an accessor for cfg.DatabaseURL. No connection is made
// until the first call to DB.
func NewAccessor(cfg *config.Config) *Accessor {
	return &Accessor{
		dsn:     cfg.DatabaseURL,
		migrate: !cfg.IsProduction(),
	}
}

// NewAccessorWithDB wraps an already-open handle. A nil db yields an accessor
// that behaves as if no store were configured.
func NewAccessorWithDB(db *gorm.DB) *Accessor {
	a := &Accessor{db: db}
	a.once.Do(func() {})
	return a
}

// DB returns the shared handle, connecting on first use. It returns nil when
// no store is configured or the connection attempt failed; the attempt is not
// retried.
func (a *Accessor) DB(ctx context.Context) *gorm.DB {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		if a.dsn == "" {
			middleware.Logger.WarnContext(ctx, "DATABASE_URL not set, running without a database")
			return
		}
		db, err := Open(a.dsn, a.migrate)
		if err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to connect to database",
				slog.String("error", err.Error()))
			return
		}
		a.db = db
	})
	if a.db == nil {
		return nil
	}
	return a.db.WithContext(ctx)
}

// Configured reports whether a store was configured at all, regardless of
// whether connecting to it succeeded.
func (a *Accessor) Configured() bool {
	return a != nil && (a.dsn != "" || a.db != nil)
}

// Available reports whether a handle is (or can be) established.
func (a *Accessor) Available(ctx context.Context) bool {
	return a.DB(ctx) != nil
}

// Ping checks connectivity of an established handle.
func (a *Accessor) Ping(ctx context.Context) error {
	db := a.DB(ctx)
	if db == nil {
		return ErrUnavailable
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying pool if one was opened.
func (a *Accessor) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialector picks the GORM driver for a connection string.
func Dialector(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return nil, fmt.Errorf("invalid postgres DATABASE_URL: %w", err)
		}
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme")
	}
}

// Open connects to dsn, installs the slog logger and query metrics, and
// optionally migrates the schema.
func Open(dsn string, migrate bool) (*gorm.DB, error) {
	dialector, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(middleware.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if db.Dialector.Name() == "sqlite" {
			// an in-memory database exists per connection
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(5)
			sqlDB.SetConnMaxLifetime(5 * time.Minute)
		}
	}

	if err := observability.RegisterDatabaseMetrics(db); err != nil {
		middleware.Logger.Warn("failed to register database metrics", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("Database connected successfully", slog.String("dialect", db.Dialector.Name()))

	if migrate {
		if err := Migrate(db); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		middleware.Logger.Info("Database migration completed")
	}

	return db, nil
}

// closeDB releases the pool of a handle that is not handed to the caller.
func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate creates or updates the blog tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(schemaModels()...)
}

func schemaModels() []any {
	return []any{&models.User{}, &models.Category{}, &models.Post{}, &models.Comment{}}
}

// TableStatus reports whether one blog table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus lists the blog tables in migration order.
func SchemaStatus(db *gorm.DB) ([]TableStatus, error) {
	var out []TableStatus
	for _, m := range schemaModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse %T: %w", m, err)
		}
		out = append(out, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: db.Migrator().HasTable(stmt.Schema.Table),
		})
	}
	return out, nil
}
