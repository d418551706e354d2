package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event recorded by the Permission aggregate. Events
// accumulate in the aggregate's buffer and are drained through
// PullDomainEvents by the layer that persisted the change.
type Event interface {
	EventName() string
	AggregateID() uuid.UUID
	TenantID() uuid.UUID
	OccurredAt() time.Time
}

type baseEvent struct {
	permissionID uuid.UUID
	tenantID     uuid.UUID
	occurredAt   time.Time
}

func (e baseEvent) AggregateID() uuid.UUID { return e.permissionID }
func (e baseEvent) TenantID() uuid.UUID    { return e.tenantID }
func (e baseEvent) OccurredAt() time.Time  { return e.occurredAt }

// PermissionCreated is emitted exactly once, by NewPermission.
type PermissionCreated struct {
	baseEvent
	Code   string
	Name   string
	Type   PermissionType
	Action PermissionAction
}

func (PermissionCreated) EventName() string { return "permission.created" }

// PermissionActivated is emitted by a successful Activate.
type PermissionActivated struct {
	baseEvent
}

func (PermissionActivated) EventName() string { return "permission.activated" }

// PermissionSuspended is emitted by a successful Suspend.
type PermissionSuspended struct {
	baseEvent
}

func (PermissionSuspended) EventName() string { return "permission.suspended" }

// PermissionDeleted is emitted by MarkAsDeleted.
type PermissionDeleted struct {
	baseEvent
}

func (PermissionDeleted) EventName() string { return "permission.deleted" }

// PermissionRestored is emitted by Restore.
type PermissionRestored struct {
	baseEvent
}

func (PermissionRestored) EventName() string { return "permission.restored" }

// PermissionInfoUpdated carries the descriptive fields after UpdateInfo.
type PermissionInfoUpdated struct {
	baseEvent
	Name        string
	Code        string
	Description string
	Resource    string
	Module      string
}

func (PermissionInfoUpdated) EventName() string { return "permission.info_updated" }

// PermissionActionUpdated carries the action change after UpdateAction.
type PermissionActionUpdated struct {
	baseEvent
	OldAction PermissionAction
	NewAction PermissionAction
}

func (PermissionActionUpdated) EventName() string { return "permission.action_updated" }

// PermissionConditionUpdated carries the rule set after SetConditions or
// ClearConditions. Rules is nil when the conditions were cleared.
type PermissionConditionUpdated struct {
	baseEvent
	Rules []ConditionRule
}

func (PermissionConditionUpdated) EventName() string { return "permission.condition_updated" }

// PermissionFieldsUpdated carries the field whitelist after a change.
type PermissionFieldsUpdated struct {
	baseEvent
	Fields []string
}

func (PermissionFieldsUpdated) EventName() string { return "permission.fields_updated" }
