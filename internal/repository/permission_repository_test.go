package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// createTestPermission builds and persists an aggregate, defaulting the
// params a test does not care about.
func createTestPermission(t *testing.T, repo PermissionRepository, params domain.NewPermissionParams) *domain.Permission {
	t.Helper()
	if params.AdminUserID == uuid.Nil {
		params.AdminUserID = uuid.New()
	}
	if params.Type == "" {
		params.Type = domain.PermissionTypeAPI
	}
	if params.Action == "" {
		params.Action = domain.ActionRead
	}
	p, err := domain.NewPermission(params)
	require.NoError(t, err)
	require.NoError(t, repo.Create(p))
	return p
}

func TestPermissionRepository_CreateAndGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()
	orgID := uuid.New()
	expiry := time.Now().Add(24 * time.Hour).UTC()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID:       tenantID,
		OrganizationID: &orgID,
		Name:           "Read users",
		Code:           "user:read",
		Description:    "Read access to user records",
		Resource:       "user",
		Module:         "identity",
		ExpiresAt:      &expiry,
	})

	retrieved, err := repo.GetByID(tenantID, p.ID())
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, p.ID(), retrieved.ID())
	assert.Equal(t, tenantID, retrieved.TenantID())
	require.NotNil(t, retrieved.OrganizationID())
	assert.Equal(t, orgID, *retrieved.OrganizationID())
	assert.Equal(t, "Read users", retrieved.Name())
	assert.Equal(t, "user:read", retrieved.Code())
	assert.Equal(t, "Read access to user records", retrieved.Description())
	assert.Equal(t, "user", retrieved.Resource())
	assert.Equal(t, "identity", retrieved.Module())
	assert.Equal(t, domain.PermissionTypeAPI, retrieved.Type())
	assert.Equal(t, domain.ActionRead, retrieved.Action())
	assert.Equal(t, domain.PermissionStatusActive, retrieved.Status())
	require.NotNil(t, retrieved.ExpiresAt())
	assert.WithinDuration(t, expiry, *retrieved.ExpiresAt(), time.Second)
	assert.WithinDuration(t, p.CreatedAt(), retrieved.CreatedAt(), time.Second)
}

func TestPermissionRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)

	retrieved, err := repo.GetByID(uuid.New(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestPermissionRepository_GetByID_OtherTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: uuid.New(), Name: "Read users", Code: "user:read",
	})

	// The row exists but another tenant must not see it
	retrieved, err := repo.GetByID(uuid.New(), p.ID())
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestPermissionRepository_Create_DuplicateCodeInTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
	})

	dup, err := domain.NewPermission(domain.NewPermissionParams{
		TenantID: tenantID, AdminUserID: uuid.New(),
		Name: "Another name", Code: "user:read",
		Type: domain.PermissionTypeAPI, Action: domain.ActionRead,
	})
	require.NoError(t, err)
	assert.Error(t, repo.Create(dup))

	// The same code in another tenant is legal
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: uuid.New(), Name: "Read users", Code: "user:read",
	})
}

func TestPermissionRepository_Create_DuplicateNameInTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
	})

	dup, err := domain.NewPermission(domain.NewPermissionParams{
		TenantID: tenantID, AdminUserID: uuid.New(),
		Name: "Read users", Code: "user:read2",
		Type: domain.PermissionTypeAPI, Action: domain.ActionRead,
	})
	require.NoError(t, err)
	assert.Error(t, repo.Create(dup))
}

func TestPermissionRepository_GetByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
	})

	retrieved, err := repo.GetByCode(tenantID, "user:read")
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, p.ID(), retrieved.ID())

	retrieved, err = repo.GetByCode(tenantID, "user:ghost")
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestPermissionRepository_GetByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
	})

	retrieved, err := repo.GetByName(tenantID, "Read users")
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, p.ID(), retrieved.ID())

	retrieved, err = repo.GetByName(uuid.New(), "Read users")
	assert.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestPermissionRepository_ExistsByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
	})

	exists, err := repo.ExistsByCode(tenantID, "user:read", nil)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCode(tenantID, "user:ghost", nil)
	assert.NoError(t, err)
	assert.False(t, exists)

	// Excluding the only holder makes the code available again; this is how
	// updates check uniqueness without tripping over themselves
	id := p.ID()
	exists, err = repo.ExistsByCode(tenantID, "user:read", &id)
	assert.NoError(t, err)
	assert.False(t, exists)

	other := uuid.New()
	exists, err = repo.ExistsByCode(tenantID, "user:read", &other)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestPermissionRepository_ExistsByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
	})

	exists, err := repo.ExistsByName(tenantID, "Read users", nil)
	assert.NoError(t, err)
	assert.True(t, exists)

	id := p.ID()
	exists, err = repo.ExistsByName(tenantID, "Read users", &id)
	assert.NoError(t, err)
	assert.False(t, exists)

	// Other tenants do not count
	exists, err = repo.ExistsByName(uuid.New(), "Read users", nil)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestPermissionRepository_Update_PersistsAggregateState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()
	roleID := uuid.New()
	parentID := uuid.New()
	childID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
		Type: domain.PermissionTypeData,
	})

	// Mutate every owned part of the aggregate
	require.NoError(t, p.UpdateInfo("List users", "user:list", "desc", "user", "identity"))
	require.NoError(t, p.SetConditions([]domain.ConditionRule{
		{Field: "owner", Operator: domain.OpEq, Value: "self"},
		{Field: "dept", Operator: domain.OpIn, Value: []string{"eng", "ops"}, LogicalOperator: domain.LogicalOr},
	}))
	require.NoError(t, p.SetFields([]string{"id", "name"}))
	require.NoError(t, p.AssignToRole(roleID))
	require.NoError(t, p.SetParentPermission(parentID))
	require.NoError(t, p.AddChildPermission(childID))
	require.NoError(t, p.Suspend())

	require.NoError(t, repo.Update(p))

	retrieved, err := repo.GetByID(tenantID, p.ID())
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "List users", retrieved.Name())
	assert.Equal(t, "user:list", retrieved.Code())
	assert.Equal(t, domain.PermissionStatusSuspended, retrieved.Status())
	assert.Equal(t, []string{"id", "name"}, retrieved.Fields())
	assert.Equal(t, []uuid.UUID{roleID}, retrieved.RoleIDs())
	require.NotNil(t, retrieved.ParentPermissionID())
	assert.Equal(t, parentID, *retrieved.ParentPermissionID())
	assert.Equal(t, []uuid.UUID{childID}, retrieved.ChildPermissionIDs())

	// The condition rules survive the JSON column round trip structurally
	require.True(t, retrieved.HasConditions())
	assert.True(t, p.Conditions().Equal(retrieved.Conditions()))
	assert.Equal(t, domain.LogicalOr, retrieved.Conditions().Combinator())
}

func TestPermissionRepository_Update_ClearedCollectionsBecomeNull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read users", Code: "user:read",
		Type: domain.PermissionTypeData,
	})
	require.NoError(t, p.SetFields([]string{"id"}))
	require.NoError(t, repo.Update(p))

	require.NoError(t, p.SetFields(nil))
	p.ClearConditions()
	require.NoError(t, repo.Update(p))

	retrieved, err := repo.GetByID(tenantID, p.ID())
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.False(t, retrieved.HasFields())
	assert.False(t, retrieved.HasConditions())
}

func TestPermissionRepository_UpdateAll_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p1 := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "First", Code: "perm:first",
	})
	p2 := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Second", Code: "perm:second",
	})

	// p1 gets a legal rename, p2 steals p1's code which violates the unique
	// index; the whole transaction must roll back
	require.NoError(t, p1.UpdateInfo("First renamed", "perm:first", "", "", ""))
	require.NoError(t, p2.UpdateInfo("Second", "perm:first", "", "", ""))

	err := repo.UpdateAll(p1, p2)
	assert.Error(t, err)

	retrieved, err := repo.GetByID(tenantID, p1.ID())
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, "First", retrieved.Name())
}

func TestPermissionRepository_UpdateAll_WritesAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p1 := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "First", Code: "perm:first",
	})
	p2 := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Second", Code: "perm:second",
	})

	require.NoError(t, p1.SetParentPermission(p2.ID()))
	require.NoError(t, p2.AddChildPermission(p1.ID()))

	require.NoError(t, repo.UpdateAll(p1, p2))

	child, err := repo.GetByID(tenantID, p1.ID())
	require.NoError(t, err)
	require.NotNil(t, child.ParentPermissionID())
	assert.Equal(t, p2.ID(), *child.ParentPermissionID())

	parent, err := repo.GetByID(tenantID, p2.ID())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p1.ID()}, parent.ChildPermissionIDs())
}

func TestPermissionRepository_ListByTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "First", Code: "perm:first",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Second", Code: "perm:second",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: uuid.New(), Name: "Other", Code: "perm:other",
	})

	perms, err := repo.ListByTenant(tenantID, nil, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, perms, 2)

	// Pagination
	perms, err = repo.ListByTenant(tenantID, nil, 1, 0)
	assert.NoError(t, err)
	assert.Len(t, perms, 1)

	perms, err = repo.ListByTenant(tenantID, nil, 10, 1)
	assert.NoError(t, err)
	assert.Len(t, perms, 1)
}

func TestPermissionRepository_ListByTenant_OrganizationScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, OrganizationID: &orgA, Name: "A", Code: "perm:a",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, OrganizationID: &orgB, Name: "B", Code: "perm:b",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Tenant wide", Code: "perm:wide",
	})

	// Without an organization filter the whole tenant is visible
	perms, err := repo.ListByTenant(tenantID, nil, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, perms, 3)

	perms, err = repo.ListByTenant(tenantID, &orgA, 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "perm:a", perms[0].Code())
}

func TestPermissionRepository_ListByType(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Menu", Code: "perm:menu",
		Type: domain.PermissionTypeMenu, Action: domain.ActionView,
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "API", Code: "perm:api",
	})

	perms, err := repo.ListByType(tenantID, nil, domain.PermissionTypeMenu, 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "perm:menu", perms[0].Code())
}

func TestPermissionRepository_ListByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	active := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Active", Code: "perm:active",
	})
	suspended := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Suspended", Code: "perm:suspended",
	})
	require.NoError(t, suspended.Suspend())
	require.NoError(t, repo.Update(suspended))

	perms, err := repo.ListByStatus(tenantID, nil, domain.PermissionStatusActive, 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, active.ID(), perms[0].ID())

	perms, err = repo.ListByStatus(tenantID, nil, domain.PermissionStatusSuspended, 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, suspended.ID(), perms[0].ID())
}

func TestPermissionRepository_ListByAction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Read", Code: "perm:read",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Manage", Code: "perm:manage",
		Action: domain.ActionManage,
	})

	perms, err := repo.ListByAction(tenantID, nil, domain.ActionManage, 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "perm:manage", perms[0].Code())
}

func TestPermissionRepository_ListByResource(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Users", Code: "user:read", Resource: "user",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Orders", Code: "order:read", Resource: "order",
	})

	perms, err := repo.ListByResource(tenantID, nil, "user", 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "user:read", perms[0].Code())
}

func TestPermissionRepository_ListByModule(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Users", Code: "user:read", Module: "identity",
	})
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Orders", Code: "order:read", Module: "commerce",
	})

	perms, err := repo.ListByModule(tenantID, nil, "identity", 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "user:read", perms[0].Code())
}

func TestPermissionRepository_ListByParentID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	parent := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Parent", Code: "perm:parent",
	})
	child := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Child", Code: "perm:child",
	})
	require.NoError(t, child.SetParentPermission(parent.ID()))
	require.NoError(t, repo.Update(child))

	perms, err := repo.ListByParentID(tenantID, nil, parent.ID(), 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, child.ID(), perms[0].ID())

	perms, err = repo.ListByParentID(tenantID, nil, uuid.New(), 0, 0)
	assert.NoError(t, err)
	assert.Empty(t, perms)
}

func TestPermissionRepository_ListByRoleID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()
	roleID := uuid.New()

	assigned := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Assigned", Code: "perm:assigned",
	})
	require.NoError(t, assigned.AssignToRole(roleID))
	require.NoError(t, assigned.AssignToRole(uuid.New()))
	require.NoError(t, repo.Update(assigned))

	other := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Other role", Code: "perm:other",
	})
	require.NoError(t, other.AssignToRole(uuid.New()))
	require.NoError(t, repo.Update(other))

	// A permission with no roles at all keeps a NULL role_ids column and
	// must not break the membership filter
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Unassigned", Code: "perm:unassigned",
	})

	perms, err := repo.ListByRoleID(tenantID, nil, roleID, 0, 0)
	assert.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, assigned.ID(), perms[0].ID())

	perms, err = repo.ListByRoleID(tenantID, nil, uuid.New(), 0, 0)
	assert.NoError(t, err)
	assert.Empty(t, perms)
}

func TestPermissionRepository_Counts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "First", Code: "perm:first",
	})
	suspended := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Second", Code: "perm:second",
		Type: domain.PermissionTypeData,
	})
	require.NoError(t, suspended.Suspend())
	require.NoError(t, repo.Update(suspended))
	createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: uuid.New(), Name: "Other", Code: "perm:other",
	})

	count, err := repo.CountByTenant(tenantID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountByType(tenantID, domain.PermissionTypeData)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountByStatus(tenantID, domain.PermissionStatusSuspended)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountByStatus(tenantID, domain.PermissionStatusInactive)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

// Renders a compiled condition set through a dry-run session to pin the SQL
// shape the data-permission pushdown produces on the sqlite dialect.
func TestPermissionRepository_PredicatePushdownSQL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPermissionRepository(db)
	tenantID := uuid.New()

	p := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "Department records", Code: "record:read",
		Type: domain.PermissionTypeData,
	})
	require.NoError(t, p.SetConditions([]domain.ConditionRule{
		{Field: "department", Operator: domain.OpEq, Value: "engineering"},
		{Field: "owner_name", Operator: domain.OpLike, Value: "%Smith%"},
	}))

	expr := p.Predicate().Expression()
	require.NotNil(t, expr)

	tx := db.Session(&gorm.Session{DryRun: true}).
		Model(&permissionRecord{}).
		Where(expr).
		Find(&[]permissionRecord{})
	require.NoError(t, tx.Error)

	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, "`department` = ?")
	assert.Contains(t, sql, "LOWER(`owner_name`) LIKE ?")
	assert.Contains(t, tx.Statement.Vars, "engineering")
	// The like operator lowercases its pattern when compiling
	assert.Contains(t, tx.Statement.Vars, "%smith%")

	unconditioned := createTestPermission(t, repo, domain.NewPermissionParams{
		TenantID: tenantID, Name: "All records", Code: "record:read:all",
		Type: domain.PermissionTypeData,
	})
	assert.Nil(t, unconditioned.Predicate().Expression())
}
