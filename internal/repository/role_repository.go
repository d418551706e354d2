package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// RoleRepository handles role data operations. Like the permission
// repository, every read is tenant-scoped and a miss returns (nil, nil).
// The permission side of a role assignment lives on the aggregate
// (roleIDs), so there is no join table to maintain here.
type RoleRepository interface {
	Create(role *domain.Role) error
	GetByID(tenantID, id uuid.UUID) (*domain.Role, error)
	GetByCode(tenantID uuid.UUID, code string) (*domain.Role, error)
	Update(role *domain.Role) error
	Delete(tenantID, id uuid.UUID) error
	List(tenantID uuid.UUID, includeSystem bool, limit, offset int) ([]domain.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(role *domain.Role) error {
	return r.db.Create(role).Error
}

func (r *roleRepository) GetByID(tenantID, id uuid.UUID) (*domain.Role, error) {
	var role domain.Role
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByCode(tenantID uuid.UUID, code string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.Where("tenant_id = ? AND code = ?", tenantID, code).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) Update(role *domain.Role) error {
	return r.db.Save(role).Error
}

func (r *roleRepository) Delete(tenantID, id uuid.UUID) error {
	return r.db.Where("tenant_id = ?", tenantID).Delete(&domain.Role{}, id).Error
}

func (r *roleRepository) List(tenantID uuid.UUID, includeSystem bool, limit, offset int) ([]domain.Role, error) {
	var roles []domain.Role
	query := r.db.Model(&domain.Role{}).Where("tenant_id = ?", tenantID)

	if !includeSystem {
		query = query.Where("is_system = ?", false)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Order("created_at, id").Find(&roles).Error
	return roles, err
}
