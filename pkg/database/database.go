package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatstack/chatroom/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM connection for the given dialector. TranslateError is
// enabled so duplicate-key and not-found conditions surface as
// gorm.ErrDuplicatedKey / gorm.ErrRecordNotFound regardless of driver.
func Open(dialector gorm.Dialector, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLiteFile opens (creating parent directories as needed) a sqlite
// database file.
func OpenSQLiteFile(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return Open(sqlite.Open(path), logLevel)
}

// OpenRegistry opens the shared tenant registry store using the configured
// driver and applies the connection pool settings.
func OpenRegistry(cfg *config.RegistryConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "postgres":
		pgConfig := postgres.Config{
			DSN:                  cfg.GetDSN(),
			PreferSimpleProtocol: true, // Disables implicit prepared statement usage
		}
		db, err = Open(postgres.New(pgConfig), cfg.LogLevel)
	case "sqlite":
		db, err = OpenSQLiteFile(cfg.Path, cfg.LogLevel)
	default:
		return nil, fmt.Errorf("unsupported registry driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
