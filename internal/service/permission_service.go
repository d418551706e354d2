package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/repository"
)

// PermissionService drives the Permission aggregate. It owns what the
// aggregate does not: tenant-level uniqueness of code and name
// (query-then-compare before save), publishing the drained domain events
// after a successful save, and cache invalidation on every write.
type PermissionService struct {
	permissionRepo repository.PermissionRepository
	roleRepo       repository.RoleRepository
	cache          CacheService
	publisher      EventPublisher
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	permissionRepo repository.PermissionRepository,
	roleRepo repository.RoleRepository,
	cache CacheService,
	publisher EventPublisher,
) *PermissionService {
	return &PermissionService{
		permissionRepo: permissionRepo,
		roleRepo:       roleRepo,
		cache:          cache,
		publisher:      publisher,
	}
}

// =============== Lifecycle ===============

// CreatePermission validates, checks tenant-level uniqueness and persists a
// new permission.
func (s *PermissionService) CreatePermission(params domain.NewPermissionParams) (*domain.Permission, error) {
	p, err := domain.NewPermission(params)
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(p.TenantID(), p.Code(), p.Name(), nil); err != nil {
		return nil, err
	}

	if err := s.permissionRepo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	s.publisher.Publish(p.PullDomainEvents()...)
	s.cache.Clear()
	return p, nil
}

// GetPermission gets a permission by ID
func (s *PermissionService) GetPermission(tenantID, id uuid.UUID) (*domain.Permission, error) {
	return s.load(tenantID, id)
}

// GetPermissionByCode gets a permission by its tenant-unique code
func (s *PermissionService) GetPermissionByCode(tenantID uuid.UUID, code string) (*domain.Permission, error) {
	p, err := s.permissionRepo.GetByCode(tenantID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: permission with code %q", domain.ErrNotFound, code)
	}
	return p, nil
}

// UpdateInfo replaces the descriptive fields of a permission.
func (s *PermissionService) UpdateInfo(tenantID, id uuid.UUID, name, code, description, resource, module string) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}

	excludeID := p.ID()
	if err := s.checkUnique(tenantID, code, name, &excludeID); err != nil {
		return nil, err
	}

	if err := p.UpdateInfo(name, code, description, resource, module); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// UpdateAction replaces the action of a permission.
func (s *PermissionService) UpdateAction(tenantID, id uuid.UUID, action domain.PermissionAction) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateAction(action); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// Activate transitions a permission back to ACTIVE.
func (s *PermissionService) Activate(tenantID, id uuid.UUID) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Activate(); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// Suspend transitions a permission to SUSPENDED.
func (s *PermissionService) Suspend(tenantID, id uuid.UUID) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Suspend(); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// Delete soft-deletes a permission: the row stays, the status becomes
// INACTIVE.
func (s *PermissionService) Delete(tenantID, id uuid.UUID) error {
	p, err := s.load(tenantID, id)
	if err != nil {
		return err
	}
	p.MarkAsDeleted()
	return s.persist(p)
}

// Restore un-deletes a permission.
func (s *PermissionService) Restore(tenantID, id uuid.UUID) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	p.Restore()
	return p, s.persist(p)
}

// =============== Conditions and fields ===============

// SetConditions validates, compiles and attaches a condition rule set.
func (s *PermissionService) SetConditions(tenantID, id uuid.UUID, rules []domain.ConditionRule) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.SetConditions(rules); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// ClearConditions drops the condition set of a permission.
func (s *PermissionService) ClearConditions(tenantID, id uuid.UUID) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	p.ClearConditions()
	return p, s.persist(p)
}

// SetFields replaces the field whitelist of a DATA permission.
func (s *PermissionService) SetFields(tenantID, id uuid.UUID, fields []string) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.SetFields(fields); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// AddField adds one field to the whitelist of a DATA permission.
func (s *PermissionService) AddField(tenantID, id uuid.UUID, field string) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.AddField(field); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// RemoveField removes one field from the whitelist of a DATA permission.
func (s *PermissionService) RemoveField(tenantID, id uuid.UUID, field string) (*domain.Permission, error) {
	p, err := s.load(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.RemoveField(field); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// =============== Role assignment ===============

// AssignRole adds the permission to a role. The role must exist in the same
// tenant.
func (s *PermissionService) AssignRole(tenantID, permissionID, roleID uuid.UUID) (*domain.Permission, error) {
	role, err := s.roleRepo.GetByID(tenantID, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if role == nil {
		return nil, fmt.Errorf("%w: role %s", domain.ErrNotFound, roleID)
	}

	p, err := s.load(tenantID, permissionID)
	if err != nil {
		return nil, err
	}
	if err := p.AssignToRole(roleID); err != nil {
		return nil, err
	}
	return p, s.persist(p)
}

// UnassignRole removes the permission from a role.
func (s *PermissionService) UnassignRole(tenantID, permissionID, roleID uuid.UUID) (*domain.Permission, error) {
	p, err := s.load(tenantID, permissionID)
	if err != nil {
		return nil, err
	}
	p.RemoveFromRole(roleID)
	return p, s.persist(p)
}

// =============== Listing and counting ===============

// ListPermissions lists the tenant's permissions, optionally scoped to one
// organization.
func (s *PermissionService) ListPermissions(tenantID uuid.UUID, orgID *uuid.UUID, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByTenant(tenantID, orgID, limit, offset)
}

// ListByType lists permissions of one type.
func (s *PermissionService) ListByType(tenantID uuid.UUID, orgID *uuid.UUID, t domain.PermissionType, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByType(tenantID, orgID, t, limit, offset)
}

// ListByStatus lists permissions in one stored status.
func (s *PermissionService) ListByStatus(tenantID uuid.UUID, orgID *uuid.UUID, status domain.PermissionStatus, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByStatus(tenantID, orgID, status, limit, offset)
}

// ListByAction lists permissions carrying one action.
func (s *PermissionService) ListByAction(tenantID uuid.UUID, orgID *uuid.UUID, action domain.PermissionAction, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByAction(tenantID, orgID, action, limit, offset)
}

// ListByResource lists permissions guarding one resource.
func (s *PermissionService) ListByResource(tenantID uuid.UUID, orgID *uuid.UUID, resource string, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByResource(tenantID, orgID, resource, limit, offset)
}

// ListByModule lists permissions belonging to one module.
func (s *PermissionService) ListByModule(tenantID uuid.UUID, orgID *uuid.UUID, module string, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByModule(tenantID, orgID, module, limit, offset)
}

// ListByRole lists permissions assigned to a role.
func (s *PermissionService) ListByRole(tenantID uuid.UUID, orgID *uuid.UUID, roleID uuid.UUID, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByRoleID(tenantID, orgID, roleID, limit, offset)
}

// ListChildren lists the direct children of a permission.
func (s *PermissionService) ListChildren(tenantID uuid.UUID, orgID *uuid.UUID, parentID uuid.UUID, limit, offset int) ([]*domain.Permission, error) {
	return s.permissionRepo.ListByParentID(tenantID, orgID, parentID, limit, offset)
}

// CountPermissions counts the tenant's permissions.
func (s *PermissionService) CountPermissions(tenantID uuid.UUID) (int64, error) {
	return s.permissionRepo.CountByTenant(tenantID)
}

// CountByType counts permissions of one type.
func (s *PermissionService) CountByType(tenantID uuid.UUID, t domain.PermissionType) (int64, error) {
	return s.permissionRepo.CountByType(tenantID, t)
}

// CountByStatus counts permissions in one stored status.
func (s *PermissionService) CountByStatus(tenantID uuid.UUID, status domain.PermissionStatus) (int64, error) {
	return s.permissionRepo.CountByStatus(tenantID, status)
}

// =============== Internal helpers ===============

func (s *PermissionService) load(tenantID, id uuid.UUID) (*domain.Permission, error) {
	p, err := s.permissionRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: permission %s", domain.ErrNotFound, id)
	}
	return p, nil
}

// persist saves a mutated aggregate, then publishes the drained events and
// invalidates cached access checks. Events are only drained after the save
// succeeded, so a failed write keeps them buffered.
func (s *PermissionService) persist(p *domain.Permission) error {
	if err := s.permissionRepo.Update(p); err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}
	s.publisher.Publish(p.PullDomainEvents()...)
	s.cache.Clear()
	return nil
}

func (s *PermissionService) checkUnique(tenantID uuid.UUID, code, name string, excludeID *uuid.UUID) error {
	codeTaken, err := s.permissionRepo.ExistsByCode(tenantID, code, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if codeTaken {
		return fmt.Errorf("%w: permission code %q", domain.ErrAlreadyExists, code)
	}

	nameTaken, err := s.permissionRepo.ExistsByName(tenantID, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check name uniqueness: %w", err)
	}
	if nameTaken {
		return fmt.Errorf("%w: permission name %q", domain.ErrAlreadyExists, name)
	}
	return nil
}
