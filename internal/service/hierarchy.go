package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/repository"
)

// ErrHierarchyCycle is returned when a parent assignment would make a
// permission its own ancestor.
var ErrHierarchyCycle = errors.New("hierarchy cycle")

// HierarchyService keeps the permission tree consistent. The aggregate
// stores raw parent/child pointers without reciprocity or cycle checks, so
// every link change goes through here: both sides are mutated and written in
// a single transaction.
type HierarchyService struct {
	permissionRepo repository.PermissionRepository
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(permissionRepo repository.PermissionRepository) *HierarchyService {
	return &HierarchyService{permissionRepo: permissionRepo}
}

// SetParent links child under parent, adds the reciprocal child pointer and
// unlinks the previous parent when the child moves. Self-parenting and
// ancestry cycles are rejected before anything is mutated.
func (s *HierarchyService) SetParent(tenantID, childID, parentID uuid.UUID) error {
	if childID == parentID {
		return fmt.Errorf("%w: permission cannot be its own parent", domain.ErrValidation)
	}

	child, err := s.load(tenantID, childID)
	if err != nil {
		return err
	}
	parent, err := s.load(tenantID, parentID)
	if err != nil {
		return err
	}

	if err := s.ensureNoCycle(tenantID, childID, parentID); err != nil {
		return err
	}

	updates := []*domain.Permission{child, parent}

	if cur := child.ParentPermissionID(); cur != nil && *cur != parentID {
		oldParent, err := s.permissionRepo.GetByID(tenantID, *cur)
		if err != nil {
			return fmt.Errorf("failed to load previous parent: %w", err)
		}
		if oldParent != nil {
			oldParent.RemoveChildPermission(childID)
			updates = append(updates, oldParent)
		}
	}

	if err := child.SetParentPermission(parentID); err != nil {
		return err
	}
	if err := parent.AddChildPermission(childID); err != nil {
		return err
	}

	if err := s.permissionRepo.UpdateAll(updates...); err != nil {
		return fmt.Errorf("failed to update hierarchy: %w", err)
	}
	return nil
}

// RemoveParent unlinks a permission from its parent, clearing both sides of
// the link. No-op when the permission has no parent.
func (s *HierarchyService) RemoveParent(tenantID, childID uuid.UUID) error {
	child, err := s.load(tenantID, childID)
	if err != nil {
		return err
	}
	parentID := child.ParentPermissionID()
	if parentID == nil {
		return nil
	}

	child.RemoveParentPermission()
	updates := []*domain.Permission{child}

	parent, err := s.permissionRepo.GetByID(tenantID, *parentID)
	if err != nil {
		return fmt.Errorf("failed to load parent permission: %w", err)
	}
	if parent != nil {
		parent.RemoveChildPermission(childID)
		updates = append(updates, parent)
	}

	if err := s.permissionRepo.UpdateAll(updates...); err != nil {
		return fmt.Errorf("failed to update hierarchy: %w", err)
	}
	return nil
}

// ensureNoCycle walks the ancestor chain upward from the prospective parent.
// Finding the child there means the link would close a loop.
func (s *HierarchyService) ensureNoCycle(tenantID, childID, parentID uuid.UUID) error {
	seen := make(map[uuid.UUID]bool)
	current := &parentID
	for current != nil {
		if *current == childID {
			return fmt.Errorf("%w: %s is already an ancestor of %s", ErrHierarchyCycle, childID, parentID)
		}
		if seen[*current] {
			// Pre-existing loop in stored data; the new link does not
			// involve the child, so let it through.
			return nil
		}
		seen[*current] = true

		p, err := s.permissionRepo.GetByID(tenantID, *current)
		if err != nil {
			return fmt.Errorf("failed to walk hierarchy: %w", err)
		}
		if p == nil {
			return nil
		}
		current = p.ParentPermissionID()
	}
	return nil
}

func (s *HierarchyService) load(tenantID, id uuid.UUID) (*domain.Permission, error) {
	p, err := s.permissionRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: permission %s", domain.ErrNotFound, id)
	}
	return p, nil
}
