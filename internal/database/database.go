package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/config"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/repository"
)

// Database wraps the gorm.DB connection
type Database struct {
	*gorm.DB
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		// Ignore error if extension already exists (race condition in parallel tests)
		if !isExtensionExistsError(err) {
			return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
		}
	}

	// Enable pgcrypto for gen_random_uuid()
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		// Ignore error if extension already exists (race condition in parallel tests)
		if !isExtensionExistsError(err) {
			return nil, fmt.Errorf("failed to enable pgcrypto extension: %w", err)
		}
	}

	return &Database{DB: db}, nil
}

// AutoMigrate runs automatic migration for all models
func (db *Database) AutoMigrate() error {
	return repository.AutoMigrate(db.DB)
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database connection is alive
func (db *Database) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// isExtensionExistsError checks if the error is due to an extension already existing
// This handles race conditions when multiple tests try to create extensions simultaneously
func isExtensionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	// Check for duplicate key violation on extension name index (SQLSTATE 23505)
	return strings.Contains(errMsg, "pg_extension_name_index") ||
		strings.Contains(errMsg, "extension") && strings.Contains(errMsg, "already exists")
}
