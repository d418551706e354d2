package database

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/config"
)

// openTestDatabase connects to the postgres instance named by TEST_DB_HOST.
// Tests that need a live server are skipped when it is not set.
func openTestDatabase(t *testing.T) *Database {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set; skipping live database test")
	}

	db, err := New(&config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "permissions_db",
		SSLMode:  "disable",
		MaxConns: 25,
		MaxIdle:  5,
	})
	require.NoError(t, err)
	require.NotNil(t, db)
	return db
}

// setupTestSchema creates a unique schema for test isolation and switches to it
func setupTestSchema(t *testing.T, db *Database) string {
	schemaName := fmt.Sprintf("test_%s", uuid.New().String()[:8])

	err := db.DB.Exec(fmt.Sprintf("CREATE SCHEMA %s", schemaName)).Error
	require.NoError(t, err)

	err = db.DB.Exec(fmt.Sprintf("SET search_path TO %s", schemaName)).Error
	require.NoError(t, err)

	t.Cleanup(func() {
		db.DB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
	})

	return schemaName
}

func TestNew_Success(t *testing.T) {
	db := openTestDatabase(t)
	defer db.Close()

	setupTestSchema(t, db)

	assert.NotNil(t, db.DB)
	assert.NoError(t, db.Ping())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "nonexistent-host-12345",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "permissions_db",
		SSLMode:  "disable",
		MaxConns: 25,
		MaxIdle:  5,
	}

	db, err := New(cfg)
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestDatabase_AutoMigrate(t *testing.T) {
	db := openTestDatabase(t)
	defer db.Close()

	schemaName := setupTestSchema(t, db)

	err := db.AutoMigrate()
	assert.NoError(t, err)

	// Verify both tables exist in the test schema
	for _, table := range []string{"permissions", "roles"} {
		var tableCount int64
		err = db.DB.Raw(
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			schemaName, table,
		).Scan(&tableCount).Error
		assert.NoError(t, err)
		assert.Equal(t, int64(1), tableCount, "table %s should exist", table)
	}
}

func TestDatabase_Close(t *testing.T) {
	db := openTestDatabase(t)

	setupTestSchema(t, db)

	err := db.Close()
	assert.NoError(t, err)

	// Ping should fail after close
	err = db.Ping()
	assert.Error(t, err)
}

func TestDatabase_ConnectionPoolSettings(t *testing.T) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set; skipping live database test")
	}

	db, err := New(&config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "permissions_db",
		SSLMode:  "disable",
		MaxConns: 50,
		MaxIdle:  10,
	})
	require.NoError(t, err)
	defer db.Close()

	setupTestSchema(t, db)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	stats := sqlDB.Stats()
	assert.Equal(t, 50, stats.MaxOpenConnections)
}

func TestDatabase_ExtensionsCreated(t *testing.T) {
	db := openTestDatabase(t)
	defer db.Close()

	setupTestSchema(t, db)

	// Extensions are database-wide, not schema-specific
	var extensionExists bool
	err := db.DB.Raw("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'uuid-ossp')").Scan(&extensionExists).Error
	assert.NoError(t, err)
	assert.True(t, extensionExists, "uuid-ossp extension should be available")

	err = db.DB.Raw("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pgcrypto')").Scan(&extensionExists).Error
	assert.NoError(t, err)
	assert.True(t, extensionExists, "pgcrypto extension should be available")
}

func TestIsExtensionExistsError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "Extension name index error",
			err:      fmt.Errorf("ERROR: duplicate key value violates unique constraint \"pg_extension_name_index\" (SQLSTATE 23505)"),
			expected: true,
		},
		{
			name:     "Extension already exists",
			err:      fmt.Errorf("ERROR: extension \"pgcrypto\" already exists"),
			expected: true,
		},
		{
			name:     "Other error",
			err:      fmt.Errorf("connection refused"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isExtensionExistsError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
