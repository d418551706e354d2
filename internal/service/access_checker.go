package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/repository"
)

// AccessChecker evaluates whether a request may use a permission.
type AccessChecker interface {
	CheckAccess(tenantID, permissionID uuid.UUID, attrs map[string]any) (bool, string, error)
	QueryScope(tenantID, permissionID uuid.UUID) (clause.Expression, error)
	AllowedFields(tenantID, permissionID uuid.UUID) ([]string, error)
}

type accessChecker struct {
	permissionRepo repository.PermissionRepository
	cache          CacheService
	logger         *zap.Logger
}

// NewAccessChecker creates a new access checker
func NewAccessChecker(
	permissionRepo repository.PermissionRepository,
	cache CacheService,
	logger *zap.Logger,
) AccessChecker {
	return &accessChecker{
		permissionRepo: permissionRepo,
		cache:          cache,
		logger:         logger,
	}
}

// CheckAccess grants when the permission can be used (ACTIVE and not
// expired) and its conditions match the request attributes. Only positive
// verdicts are cached; the key includes a checksum of the attribute map so
// different requests cache independently.
func (ac *accessChecker) CheckAccess(tenantID, permissionID uuid.UUID, attrs map[string]any) (bool, string, error) {
	cacheKey := GenerateCacheKey(tenantID, permissionID, attributesChecksum(attrs))
	if cached, found := ac.cache.Get(cacheKey); found {
		if result, ok := cached.(bool); ok && result {
			return true, "access granted (cached)", nil
		}
	}

	p, err := ac.permissionRepo.GetByID(tenantID, permissionID)
	if err != nil {
		return false, "error fetching permission", err
	}
	if p == nil {
		return false, "permission not found", nil
	}

	if !p.CanBeUsed() {
		if p.IsExpired() {
			return false, "permission expired", nil
		}
		return false, fmt.Sprintf("permission not active (status %s)", p.Status()), nil
	}

	if !p.Predicate().Matches(attrs) {
		ac.logger.Debug("conditions rejected request",
			zap.String("permission_id", permissionID.String()),
			zap.String("tenant_id", tenantID.String()),
		)
		return false, "conditions not satisfied", nil
	}

	ac.cache.Set(cacheKey, true)
	return true, "access granted", nil
}

// QueryScope compiles the permission's conditions into a gorm expression for
// filter push-down. Callers attach it to their own tenant-scoped queries; a
// nil expression means the permission restricts nothing.
func (ac *accessChecker) QueryScope(tenantID, permissionID uuid.UUID) (clause.Expression, error) {
	p, err := ac.permissionRepo.GetByID(tenantID, permissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: permission %s", domain.ErrNotFound, permissionID)
	}
	return p.Predicate().Expression(), nil
}

// AllowedFields returns the field mask of a DATA permission. An empty mask
// means the permission does not restrict fields.
func (ac *accessChecker) AllowedFields(tenantID, permissionID uuid.UUID) ([]string, error) {
	p, err := ac.permissionRepo.GetByID(tenantID, permissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: permission %s", domain.ErrNotFound, permissionID)
	}
	return p.Fields(), nil
}

// attributesChecksum fingerprints an attribute map. json.Marshal writes map
// keys in sorted order, so structurally equal maps hash alike.
func attributesChecksum(attrs map[string]any) string {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
