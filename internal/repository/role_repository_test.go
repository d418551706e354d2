package repository

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// setupTestDB opens a private in-memory database so tests stay hermetic. Each
// test gets its own named memory database to avoid sharing state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.New().String()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	// Cleanup after test
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func TestRoleRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)

	role := &domain.Role{
		TenantID:    uuid.New(),
		Code:        "admin",
		Name:        "Administrator",
		Description: "Full administrative access",
	}

	err := repo.Create(role)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, role.ID)
}

func TestRoleRepository_Create_DuplicateCodeInTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	require.NoError(t, repo.Create(&domain.Role{TenantID: tenantID, Code: "admin", Name: "Admin"}))

	// Same code in the same tenant violates the unique index
	err := repo.Create(&domain.Role{TenantID: tenantID, Code: "admin", Name: "Admin again"})
	assert.Error(t, err)

	// Same code in another tenant is fine
	err = repo.Create(&domain.Role{TenantID: uuid.New(), Code: "admin", Name: "Admin"})
	assert.NoError(t, err)
}

func TestRoleRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	role := &domain.Role{TenantID: tenantID, Code: "editor", Name: "Editor"}
	require.NoError(t, repo.Create(role))

	retrieved, err := repo.GetByID(tenantID, role.ID)
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, role.Code, retrieved.Code)
	assert.Equal(t, role.Name, retrieved.Name)

	// Another tenant cannot see the role
	retrieved, err = repo.GetByID(uuid.New(), role.ID)
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestRoleRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)

	retrieved, err := repo.GetByID(uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestRoleRepository_GetByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	role := &domain.Role{TenantID: tenantID, Code: "viewer", Name: "Viewer"}
	require.NoError(t, repo.Create(role))

	retrieved, err := repo.GetByCode(tenantID, "viewer")
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, role.ID, retrieved.ID)

	retrieved, err = repo.GetByCode(tenantID, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestRoleRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	role := &domain.Role{TenantID: tenantID, Code: "editor", Name: "Editor"}
	require.NoError(t, repo.Create(role))

	role.Name = "Content Editor"
	role.Description = "Edits content"
	require.NoError(t, repo.Update(role))

	retrieved, err := repo.GetByID(tenantID, role.ID)
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "Content Editor", retrieved.Name)
	assert.Equal(t, "Edits content", retrieved.Description)
}

func TestRoleRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	role := &domain.Role{TenantID: tenantID, Code: "temp", Name: "Temporary"}
	require.NoError(t, repo.Create(role))

	require.NoError(t, repo.Delete(tenantID, role.ID))

	// Soft deleted roles are invisible to reads
	retrieved, err := repo.GetByID(tenantID, role.ID)
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestRoleRepository_Delete_OtherTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	role := &domain.Role{TenantID: tenantID, Code: "keep", Name: "Keep"}
	require.NoError(t, repo.Create(role))

	// Deleting under the wrong tenant must not remove the role
	require.NoError(t, repo.Delete(uuid.New(), role.ID))

	retrieved, err := repo.GetByID(tenantID, role.ID)
	assert.NoError(t, err)
	assert.NotNil(t, retrieved)
}

func TestRoleRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepository(db)
	tenantID := uuid.New()

	require.NoError(t, repo.Create(&domain.Role{TenantID: tenantID, Code: "admin", Name: "Admin", IsSystem: true}))
	require.NoError(t, repo.Create(&domain.Role{TenantID: tenantID, Code: "editor", Name: "Editor"}))
	require.NoError(t, repo.Create(&domain.Role{TenantID: tenantID, Code: "viewer", Name: "Viewer"}))
	require.NoError(t, repo.Create(&domain.Role{TenantID: uuid.New(), Code: "other", Name: "Other tenant"}))

	// Without system roles
	roles, err := repo.List(tenantID, false, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, roles, 2)

	// With system roles
	roles, err = repo.List(tenantID, true, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, roles, 3)

	// Pagination
	roles, err = repo.List(tenantID, true, 2, 0)
	assert.NoError(t, err)
	assert.Len(t, roles, 2)

	roles, err = repo.List(tenantID, true, 2, 2)
	assert.NoError(t, err)
	assert.Len(t, roles, 1)
}
