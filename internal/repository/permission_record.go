package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/HL8-ORG/aiofix-ddd-saas-platform-sub001/internal/domain"
)

// permissionRecord is the gorm model behind the Permission aggregate. The
// aggregate owns createdAt/updatedAt, so gorm's automatic time tracking is
// disabled. There is no gorm.DeletedAt: soft delete is the INACTIVE status
// transition, a row is never removed.
type permissionRecord struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_permissions_tenant_code;uniqueIndex:idx_permissions_tenant_name"`
	OrganizationID     *uuid.UUID     `gorm:"type:uuid;index"`
	AdminUserID        uuid.UUID      `gorm:"type:uuid;not null"`
	Name               string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_permissions_tenant_name"`
	Code               string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_permissions_tenant_code"`
	Description        string         `gorm:"type:text"`
	Resource           string         `gorm:"type:varchar(255);index"`
	Module             string         `gorm:"type:varchar(100);index"`
	Type               string         `gorm:"type:varchar(20);not null;index"`
	Action             string         `gorm:"type:varchar(30);not null;index"`
	Status             string         `gorm:"type:varchar(20);not null;index"`
	Conditions         datatypes.JSON `gorm:"column:conditions"`
	Fields             datatypes.JSON `gorm:"column:fields"`
	RoleIDs            datatypes.JSON `gorm:"column:role_ids"`
	ParentPermissionID *uuid.UUID     `gorm:"type:uuid;index"`
	ChildPermissionIDs datatypes.JSON `gorm:"column:child_permission_ids"`
	ExpiresAt          *time.Time     `gorm:"index"`
	CreatedAt          time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt          time.Time      `gorm:"not null;autoUpdateTime:false"`
}

// TableName specifies the table name for permissionRecord
func (permissionRecord) TableName() string {
	return "permissions"
}

// newPermissionRecord maps an aggregate snapshot onto its row form.
func newPermissionRecord(p *domain.Permission) (*permissionRecord, error) {
	s := p.Snapshot()
	rec := &permissionRecord{
		ID:                 s.ID,
		TenantID:           s.TenantID,
		OrganizationID:     s.OrganizationID,
		AdminUserID:        s.AdminUserID,
		Name:               s.Name,
		Code:               s.Code,
		Description:        s.Description,
		Resource:           s.Resource,
		Module:             s.Module,
		Type:               string(s.Type),
		Action:             string(s.Action),
		Status:             string(s.Status),
		ParentPermissionID: s.ParentPermissionID,
		ExpiresAt:          s.ExpiresAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}

	var err error
	if rec.Conditions, err = marshalJSONColumn(s.Conditions, len(s.Conditions) > 0); err != nil {
		return nil, fmt.Errorf("encode conditions: %w", err)
	}
	if rec.Fields, err = marshalJSONColumn(s.Fields, len(s.Fields) > 0); err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	if rec.RoleIDs, err = marshalJSONColumn(s.RoleIDs, len(s.RoleIDs) > 0); err != nil {
		return nil, fmt.Errorf("encode role ids: %w", err)
	}
	if rec.ChildPermissionIDs, err = marshalJSONColumn(s.ChildPermissionIDs, len(s.ChildPermissionIDs) > 0); err != nil {
		return nil, fmt.Errorf("encode child permission ids: %w", err)
	}
	return rec, nil
}

// toDomain rehydrates the aggregate from the row. Enum and rule validation
// happens inside RestorePermission.
func (rec *permissionRecord) toDomain() (*domain.Permission, error) {
	s := domain.PermissionSnapshot{
		ID:                 rec.ID,
		TenantID:           rec.TenantID,
		OrganizationID:     rec.OrganizationID,
		AdminUserID:        rec.AdminUserID,
		Name:               rec.Name,
		Code:               rec.Code,
		Description:        rec.Description,
		Resource:           rec.Resource,
		Module:             rec.Module,
		Type:               domain.PermissionType(rec.Type),
		Action:             domain.PermissionAction(rec.Action),
		Status:             domain.PermissionStatus(rec.Status),
		ParentPermissionID: rec.ParentPermissionID,
		ExpiresAt:          rec.ExpiresAt,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}

	if len(rec.Conditions) > 0 {
		if err := json.Unmarshal(rec.Conditions, &s.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions: %w", err)
		}
	}
	if len(rec.Fields) > 0 {
		if err := json.Unmarshal(rec.Fields, &s.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}
	if len(rec.RoleIDs) > 0 {
		if err := json.Unmarshal(rec.RoleIDs, &s.RoleIDs); err != nil {
			return nil, fmt.Errorf("decode role ids: %w", err)
		}
	}
	if len(rec.ChildPermissionIDs) > 0 {
		if err := json.Unmarshal(rec.ChildPermissionIDs, &s.ChildPermissionIDs); err != nil {
			return nil, fmt.Errorf("decode child permission ids: %w", err)
		}
	}
	return domain.RestorePermission(s)
}

// marshalJSONColumn encodes a slice for a JSON column, keeping the column
// NULL when the slice is empty.
func marshalJSONColumn(v any, nonEmpty bool) (datatypes.JSON, error) {
	if !nonEmpty {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
