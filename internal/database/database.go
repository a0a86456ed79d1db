package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/logging"
)

// Service owns the connection pool for the lifetime of the process.
type Service interface {
	// Health runs a trivial query against the store.
	Health(ctx context.Context) error
	Stats() sql.DBStats
	DB() *gorm.DB
	Close() error
}

type service struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	driver config.Driver
	logger *log.Logger
}

// New opens the store named by cfg.DatabaseURL and configures its pool.
func New(cfg *config.Config, logger *log.Logger) (Service, error) {
	dialector, inMemory := dialectorFor(cfg)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logging.GormLogger(logger, cfg.Debug),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}

	if inMemory {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Info("database connected", "driver", cfg.Driver(), "in_memory", inMemory)
	return &service{db: db, sqlDB: sqlDB, driver: cfg.Driver(), logger: logger}, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, bool) {
	if cfg.Driver() == config.DriverSQLite {
		dsn, inMemory := cfg.SQLiteDSN()
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), inMemory
	}
	return postgres.New(postgres.Config{DSN: cfg.DatabaseURL}), false
}

// Migrate creates the todos table if it does not exist yet.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&domain.Todo{}); err != nil {
		return fmt.Errorf("auto-migrate todos: %w", err)
	}
	return nil
}

func (s *service) DB() *gorm.DB {
	return s.db
}

func (s *service) Health(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

func (s *service) Stats() sql.DBStats {
	return s.sqlDB.Stats()
}

func (s *service) Close() error {
	s.logger.Info("closing database connection pool", "driver", s.driver)
	return s.sqlDB.Close()
}
