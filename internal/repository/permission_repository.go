package repository

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// PermissionRepository handles permission aggregate persistence. Every query
// is tenant-scoped; cross-tenant leakage is a correctness violation, so no
// method reads without a tenant id. Lookup misses return (nil, nil).
type PermissionRepository interface {
	Create(p *domain.Permission) error
	Update(p *domain.Permission) error
	UpdateAll(ps ...*domain.Permission) error
	GetByID(tenantID, id uuid.UUID) (*domain.Permission, error)
	GetByCode(tenantID uuid.UUID, code string) (*domain.Permission, error)
	GetByName(tenantID uuid.UUID, name string) (*domain.Permission, error)
	ExistsByCode(tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error)
	ExistsByName(tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	ListByTenant(tenantID uuid.UUID, orgID *uuid.UUID, limit, offset int) ([]*domain.Permission, error)
	ListByType(tenantID uuid.UUID, orgID *uuid.UUID, t domain.PermissionType, limit, offset int) ([]*domain.Permission, error)
	ListByStatus(tenantID uuid.UUID, orgID *uuid.UUID, s domain.PermissionStatus, limit, offset int) ([]*domain.Permission, error)
	ListByAction(tenantID uuid.UUID, orgID *uuid.UUID, a domain.PermissionAction, limit, offset int) ([]*domain.Permission, error)
	ListByResource(tenantID uuid.UUID, orgID *uuid.UUID, resource string, limit, offset int) ([]*domain.Permission, error)
	ListByModule(tenantID uuid.UUID, orgID *uuid.UUID, module string, limit, offset int) ([]*domain.Permission, error)
	ListByParentID(tenantID uuid.UUID, orgID *uuid.UUID, parentID uuid.UUID, limit, offset int) ([]*domain.Permission, error)
	ListByRoleID(tenantID uuid.UUID, orgID *uuid.UUID, roleID uuid.UUID, limit, offset int) ([]*domain.Permission, error)
	CountByTenant(tenantID uuid.UUID) (int64, error)
	CountByType(tenantID uuid.UUID, t domain.PermissionType) (int64, error)
	CountByStatus(tenantID uuid.UUID, s domain.PermissionStatus) (int64, error)
}

type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(p *domain.Permission) error {
	rec, err := newPermissionRecord(p)
	if err != nil {
		return err
	}
	return r.db.Create(rec).Error
}

// Update writes the full row back. The aggregate validated every field
// change, so a plain Save by primary key is enough.
func (r *permissionRepository) Update(p *domain.Permission) error {
	rec, err := newPermissionRecord(p)
	if err != nil {
		return err
	}
	return r.db.Save(rec).Error
}

// UpdateAll writes several aggregates inside one transaction. The hierarchy
// service relies on this for reciprocal parent/child updates.
func (r *permissionRepository) UpdateAll(ps ...*domain.Permission) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range ps {
			rec, err := newPermissionRecord(p)
			if err != nil {
				return err
			}
			if err := tx.Save(rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *permissionRepository) GetByID(tenantID, id uuid.UUID) (*domain.Permission, error) {
	return r.getOne(r.db.Where("tenant_id = ? AND id = ?", tenantID, id))
}

func (r *permissionRepository) GetByCode(tenantID uuid.UUID, code string) (*domain.Permission, error) {
	return r.getOne(r.db.Where("tenant_id = ? AND code = ?", tenantID, code))
}

func (r *permissionRepository) GetByName(tenantID uuid.UUID, name string) (*domain.Permission, error) {
	return r.getOne(r.db.Where("tenant_id = ? AND name = ?", tenantID, name))
}

func (r *permissionRepository) ExistsByCode(tenantID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	return r.exists("code", tenantID, code, excludeID)
}

func (r *permissionRepository) ExistsByName(tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	return r.exists("name", tenantID, name, excludeID)
}

func (r *permissionRepository) ListByTenant(tenantID uuid.UUID, orgID *uuid.UUID, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID), limit, offset)
}

func (r *permissionRepository) ListByType(tenantID uuid.UUID, orgID *uuid.UUID, t domain.PermissionType, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID).Where("type = ?", string(t)), limit, offset)
}

func (r *permissionRepository) ListByStatus(tenantID uuid.UUID, orgID *uuid.UUID, s domain.PermissionStatus, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID).Where("status = ?", string(s)), limit, offset)
}

func (r *permissionRepository) ListByAction(tenantID uuid.UUID, orgID *uuid.UUID, a domain.PermissionAction, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID).Where("action = ?", string(a)), limit, offset)
}

func (r *permissionRepository) ListByResource(tenantID uuid.UUID, orgID *uuid.UUID, resource string, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID).Where("resource = ?", resource), limit, offset)
}

func (r *permissionRepository) ListByModule(tenantID uuid.UUID, orgID *uuid.UUID, module string, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID).Where("module = ?", module), limit, offset)
}

func (r *permissionRepository) ListByParentID(tenantID uuid.UUID, orgID *uuid.UUID, parentID uuid.UUID, limit, offset int) ([]*domain.Permission, error) {
	return r.list(r.scoped(tenantID, orgID).Where("parent_permission_id = ?", parentID), limit, offset)
}

// ListByRoleID filters on membership inside the role_ids JSON array. The
// containment predicate is dialect-specific: jsonb @> on postgres, json_each
// on sqlite.
func (r *permissionRepository) ListByRoleID(tenantID uuid.UUID, orgID *uuid.UUID, roleID uuid.UUID, limit, offset int) ([]*domain.Permission, error) {
	query := r.scoped(tenantID, orgID)
	switch r.db.Dialector.Name() {
	case "postgres":
		member, err := json.Marshal([]uuid.UUID{roleID})
		if err != nil {
			return nil, err
		}
		query = query.Where("role_ids @> ?", datatypes.JSON(member))
	default:
		query = query.Where(
			"EXISTS (SELECT 1 FROM json_each(COALESCE(role_ids, '[]')) WHERE json_each.value = ?)",
			roleID.String(),
		)
	}
	return r.list(query, limit, offset)
}

func (r *permissionRepository) CountByTenant(tenantID uuid.UUID) (int64, error) {
	return r.count(r.db.Model(&permissionRecord{}).Where("tenant_id = ?", tenantID))
}

func (r *permissionRepository) CountByType(tenantID uuid.UUID, t domain.PermissionType) (int64, error) {
	return r.count(r.db.Model(&permissionRecord{}).Where("tenant_id = ? AND type = ?", tenantID, string(t)))
}

func (r *permissionRepository) CountByStatus(tenantID uuid.UUID, s domain.PermissionStatus) (int64, error) {
	return r.count(r.db.Model(&permissionRecord{}).Where("tenant_id = ? AND status = ?", tenantID, string(s)))
}

func (r *permissionRepository) scoped(tenantID uuid.UUID, orgID *uuid.UUID) *gorm.DB {
	query := r.db.Model(&permissionRecord{}).Where("tenant_id = ?", tenantID)
	if orgID != nil {
		query = query.Where("organization_id = ?", *orgID)
	}
	return query
}

func (r *permissionRepository) getOne(query *gorm.DB) (*domain.Permission, error) {
	var rec permissionRecord
	err := query.First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain()
}

func (r *permissionRepository) exists(column string, tenantID uuid.UUID, value string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.Model(&permissionRecord{}).
		Where("tenant_id = ?", tenantID).
		Where(column+" = ?", value)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *permissionRepository) list(query *gorm.DB, limit, offset int) ([]*domain.Permission, error) {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var records []permissionRecord
	if err := query.Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Permission, len(records))
	for i := range records {
		p, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (r *permissionRepository) count(query *gorm.DB) (int64, error) {
	var count int64
	err := query.Count(&count).Error
	return count, err
}
