package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/entities"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// UnitOfWork receives a handle bound to a single connection (or transaction)
// for the duration of the call.
type UnitOfWork func(tx *gorm.DB) error

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
}

func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Page{},
		&entities.Shared{},
		&entities.Comment{},
		&entities.LogEntry{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", cfg.Driver)

	return &Database{DB: db, Driver: cfg.Driver}, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// sqliteDSN enables WAL and a busy timeout so request writes and background
// audit writes can share the file.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_journal=WAL&_busy_timeout=5000"
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithConn runs fn on one dedicated pooled connection. The connection goes
// back to the pool when fn returns, fails or panics.
func (d *Database) WithConn(ctx context.Context, fn UnitOfWork) error {
	return d.DB.WithContext(ctx).Connection(fn)
}

// WithTx runs fn inside a transaction that commits when fn returns nil and
// rolls back otherwise.
func (d *Database) WithTx(ctx context.Context, fn UnitOfWork) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// Query runs a parameterized statement and scans every row into dest.
func Query(tx *gorm.DB, dest any, sql string, args ...any) error {
	if err := tx.Raw(sql, args...).Scan(dest).Error; err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

// Insert creates value, filling its primary key with the store-assigned id.
func Insert(tx *gorm.DB, value any) error {
	if err := tx.Create(value).Error; err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}
