package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Permission is the aggregate root of the permission subsystem. All state is
// private and every mutation goes through a method that validates fully
// before touching any field, so a failed call leaves the aggregate unchanged.
type Permission struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	organizationID *uuid.UUID
	adminUserID    uuid.UUID
	name           string
	code           string
	description    string
	resource       string
	module         string
	permType       PermissionType
	action         PermissionAction
	status         PermissionStatus
	conditions     *ConditionSet
	fields         []string
	roleIDs        []uuid.UUID
	parentID       *uuid.UUID
	childIDs       []uuid.UUID
	expiresAt      *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	events         []Event
}

// NewPermissionParams carries the construction arguments of NewPermission.
// ID is generated when zero.
type NewPermissionParams struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	OrganizationID *uuid.UUID
	AdminUserID    uuid.UUID
	Name           string
	Code           string
	Description    string
	Resource       string
	Module         string
	Type           PermissionType
	Action         PermissionAction
	ExpiresAt      *time.Time
}

// NewPermission validates the params and returns a new ACTIVE permission
// with a PermissionCreated event in its buffer.
func NewPermission(params NewPermissionParams) (*Permission, error) {
	if params.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant id is required", ErrValidation)
	}
	if params.AdminUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: admin user id is required", ErrValidation)
	}
	if params.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if params.Code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if !params.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown permission type %q", ErrValidation, params.Type)
	}
	if !params.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown permission action %q", ErrValidation, params.Action)
	}

	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	p := &Permission{
		id:             id,
		tenantID:       params.TenantID,
		organizationID: copyUUIDPtr(params.OrganizationID),
		adminUserID:    params.AdminUserID,
		name:           params.Name,
		code:           params.Code,
		description:    params.Description,
		resource:       params.Resource,
		module:         params.Module,
		permType:       params.Type,
		action:         params.Action,
		status:         PermissionStatusActive,
		expiresAt:      copyTimePtr(params.ExpiresAt),
		createdAt:      now,
		updatedAt:      now,
	}
	p.emit(PermissionCreated{
		baseEvent: p.eventBase(),
		Code:      p.code,
		Name:      p.name,
		Type:      p.permType,
		Action:    p.action,
	})
	return p, nil
}

// PermissionSnapshot is the flat persisted shape of the aggregate, consumed
// and produced by the repository mapper.
type PermissionSnapshot struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	OrganizationID     *uuid.UUID
	AdminUserID        uuid.UUID
	Name               string
	Code               string
	Description        string
	Resource           string
	Module             string
	Type               PermissionType
	Action             PermissionAction
	Status             PermissionStatus
	Conditions         []ConditionRule
	Fields             []string
	RoleIDs            []uuid.UUID
	ParentPermissionID *uuid.UUID
	ChildPermissionIDs []uuid.UUID
	ExpiresAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RestorePermission rehydrates an aggregate from its persisted snapshot. The
// stored enums, rules and capability invariants are revalidated so corrupt
// rows surface as ValidationError instead of an inconsistent aggregate.
// No events are emitted.
func RestorePermission(s PermissionSnapshot) (*Permission, error) {
	if s.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: snapshot id is required", ErrValidation)
	}
	if s.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: snapshot tenant id is required", ErrValidation)
	}
	if !s.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown permission type %q", ErrValidation, s.Type)
	}
	if !s.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown permission action %q", ErrValidation, s.Action)
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown permission status %q", ErrValidation, s.Status)
	}

	var conditions *ConditionSet
	if len(s.Conditions) > 0 {
		if !s.Type.CanHaveConditions() {
			return nil, fmt.Errorf("%w: permission type %q does not support conditions", ErrValidation, s.Type)
		}
		cs, err := newConditionSet(s.Conditions)
		if err != nil {
			return nil, err
		}
		conditions = cs
	}
	if len(s.Fields) > 0 && !s.Type.CanHaveFields() {
		return nil, fmt.Errorf("%w: permission type %q does not support fields", ErrValidation, s.Type)
	}

	return &Permission{
		id:             s.ID,
		tenantID:       s.TenantID,
		organizationID: copyUUIDPtr(s.OrganizationID),
		adminUserID:    s.AdminUserID,
		name:           s.Name,
		code:           s.Code,
		description:    s.Description,
		resource:       s.Resource,
		module:         s.Module,
		permType:       s.Type,
		action:         s.Action,
		status:         s.Status,
		conditions:     conditions,
		fields:         copyStrings(s.Fields),
		roleIDs:        copyUUIDs(s.RoleIDs),
		parentID:       copyUUIDPtr(s.ParentPermissionID),
		childIDs:       copyUUIDs(s.ChildPermissionIDs),
		expiresAt:      copyTimePtr(s.ExpiresAt),
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
	}, nil
}

// Snapshot returns the flat persisted shape of the current state. The stored
// status is returned as-is; expiry is a computed classification and never
// written into the status field.
func (p *Permission) Snapshot() PermissionSnapshot {
	var rules []ConditionRule
	if p.conditions != nil {
		rules = p.conditions.Rules()
	}
	return PermissionSnapshot{
		ID:                 p.id,
		TenantID:           p.tenantID,
		OrganizationID:     copyUUIDPtr(p.organizationID),
		AdminUserID:        p.adminUserID,
		Name:               p.name,
		Code:               p.code,
		Description:        p.description,
		Resource:           p.resource,
		Module:             p.module,
		Type:               p.permType,
		Action:             p.action,
		Status:             p.status,
		Conditions:         rules,
		Fields:             copyStrings(p.fields),
		RoleIDs:            copyUUIDs(p.roleIDs),
		ParentPermissionID: copyUUIDPtr(p.parentID),
		ChildPermissionIDs: copyUUIDs(p.childIDs),
		ExpiresAt:          copyTimePtr(p.expiresAt),
		CreatedAt:          p.createdAt,
		UpdatedAt:          p.updatedAt,
	}
}

// Activate transitions INACTIVE or SUSPENDED back to ACTIVE.
func (p *Permission) Activate() error {
	if !p.status.CanBeActivated() {
		return fmt.Errorf("%w: cannot activate permission in status %q", ErrIllegalTransition, p.status)
	}
	p.status = PermissionStatusActive
	p.touch()
	p.emit(PermissionActivated{baseEvent: p.eventBase()})
	return nil
}

// Suspend transitions ACTIVE to SUSPENDED.
func (p *Permission) Suspend() error {
	if !p.status.CanBeSuspended() {
		return fmt.Errorf("%w: cannot suspend permission in status %q", ErrIllegalTransition, p.status)
	}
	p.status = PermissionStatusSuspended
	p.touch()
	p.emit(PermissionSuspended{baseEvent: p.eventBase()})
	return nil
}

// MarkAsDeleted soft-deletes the permission by moving it to INACTIVE. The
// transition is unconditional.
func (p *Permission) MarkAsDeleted() {
	p.status = PermissionStatusInactive
	p.touch()
	p.emit(PermissionDeleted{baseEvent: p.eventBase()})
}

// Restore un-deletes the permission by moving it to ACTIVE. Unlike Activate
// it has no guard.
func (p *Permission) Restore() {
	p.status = PermissionStatusActive
	p.touch()
	p.emit(PermissionRestored{baseEvent: p.eventBase()})
}

// UpdateInfo replaces the five descriptive fields. Name and code stay
// required; status, type and action are untouched.
func (p *Permission) UpdateInfo(name, code, description, resource, module string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrValidation)
	}
	p.name = name
	p.code = code
	p.description = description
	p.resource = resource
	p.module = module
	p.touch()
	p.emit(PermissionInfoUpdated{
		baseEvent:   p.eventBase(),
		Name:        name,
		Code:        code,
		Description: description,
		Resource:    resource,
		Module:      module,
	})
	return nil
}

// UpdateAction replaces the action.
func (p *Permission) UpdateAction(action PermissionAction) error {
	if !action.IsValid() {
		return fmt.Errorf("%w: unknown permission action %q", ErrValidation, action)
	}
	old := p.action
	p.action = action
	p.touch()
	p.emit(PermissionActionUpdated{
		baseEvent: p.eventBase(),
		OldAction: old,
		NewAction: action,
	})
	return nil
}

// SetConditions validates and compiles the rules, then replaces the
// condition set. Only api and data permissions may carry conditions.
func (p *Permission) SetConditions(rules []ConditionRule) error {
	if !p.permType.CanHaveConditions() {
		return fmt.Errorf("%w: permission type %q does not support conditions", ErrCapabilityViolation, p.permType)
	}
	cs, err := newConditionSet(rules)
	if err != nil {
		return err
	}
	p.conditions = cs
	p.touch()
	p.emit(PermissionConditionUpdated{
		baseEvent: p.eventBase(),
		Rules:     cs.Rules(),
	})
	return nil
}

// ClearConditions drops the condition set. Clearing is always legal, even
// for types that cannot carry conditions.
func (p *Permission) ClearConditions() {
	p.conditions = nil
	p.touch()
	p.emit(PermissionConditionUpdated{baseEvent: p.eventBase()})
}

// SetFields replaces the field whitelist. Only data permissions may carry
// fields. Duplicates collapse to their first occurrence.
func (p *Permission) SetFields(fields []string) error {
	if !p.permType.CanHaveFields() {
		return fmt.Errorf("%w: permission type %q does not support fields", ErrCapabilityViolation, p.permType)
	}
	for i, f := range fields {
		if f == "" {
			return fmt.Errorf("%w: field %d must not be empty", ErrValidation, i)
		}
	}
	seen := make(map[string]bool, len(fields))
	next := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			next = append(next, f)
		}
	}
	p.fields = next
	p.touch()
	p.emit(PermissionFieldsUpdated{
		baseEvent: p.eventBase(),
		Fields:    copyStrings(next),
	})
	return nil
}

// AddField appends one field to the whitelist. Adding an already present
// field is a no-op without an event.
func (p *Permission) AddField(field string) error {
	if !p.permType.CanHaveFields() {
		return fmt.Errorf("%w: permission type %q does not support fields", ErrCapabilityViolation, p.permType)
	}
	if field == "" {
		return fmt.Errorf("%w: field must not be empty", ErrValidation)
	}
	if p.HasField(field) {
		return nil
	}
	p.fields = append(p.fields, field)
	p.touch()
	p.emit(PermissionFieldsUpdated{
		baseEvent: p.eventBase(),
		Fields:    copyStrings(p.fields),
	})
	return nil
}

// RemoveField removes one field from the whitelist. Removing an absent field
// is a no-op without an event.
func (p *Permission) RemoveField(field string) error {
	if !p.permType.CanHaveFields() {
		return fmt.Errorf("%w: permission type %q does not support fields", ErrCapabilityViolation, p.permType)
	}
	idx := -1
	for i, f := range p.fields {
		if f == field {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	p.fields = append(p.fields[:idx], p.fields[idx+1:]...)
	p.touch()
	p.emit(PermissionFieldsUpdated{
		baseEvent: p.eventBase(),
		Fields:    copyStrings(p.fields),
	})
	return nil
}

// AssignToRole adds the role to the membership set. Idempotent; role
// membership changes emit no domain event.
func (p *Permission) AssignToRole(roleID uuid.UUID) error {
	if roleID == uuid.Nil {
		return fmt.Errorf("%w: role id is required", ErrValidation)
	}
	if p.HasRole(roleID) {
		return nil
	}
	p.roleIDs = append(p.roleIDs, roleID)
	p.touch()
	return nil
}

// RemoveFromRole removes the role from the membership set. Idempotent, no
// domain event.
func (p *Permission) RemoveFromRole(roleID uuid.UUID) {
	for i, id := range p.roleIDs {
		if id == roleID {
			p.roleIDs = append(p.roleIDs[:i], p.roleIDs[i+1:]...)
			p.touch()
			return
		}
	}
}

// SetParentPermission records the parent pointer. This is raw bookkeeping:
// no cycle detection and no reciprocal child update happen here, that
// consistency belongs to the hierarchy service.
func (p *Permission) SetParentPermission(parentID uuid.UUID) error {
	if parentID == uuid.Nil {
		return fmt.Errorf("%w: parent permission id is required", ErrValidation)
	}
	id := parentID
	p.parentID = &id
	p.touch()
	return nil
}

// RemoveParentPermission clears the parent pointer. No-op when unset.
func (p *Permission) RemoveParentPermission() {
	if p.parentID == nil {
		return
	}
	p.parentID = nil
	p.touch()
}

// AddChildPermission records a child pointer. Idempotent raw bookkeeping,
// like SetParentPermission.
func (p *Permission) AddChildPermission(childID uuid.UUID) error {
	if childID == uuid.Nil {
		return fmt.Errorf("%w: child permission id is required", ErrValidation)
	}
	for _, id := range p.childIDs {
		if id == childID {
			return nil
		}
	}
	p.childIDs = append(p.childIDs, childID)
	p.touch()
	return nil
}

// RemoveChildPermission removes a child pointer. No-op when absent.
func (p *Permission) RemoveChildPermission(childID uuid.UUID) {
	for i, id := range p.childIDs {
		if id == childID {
			p.childIDs = append(p.childIDs[:i], p.childIDs[i+1:]...)
			p.touch()
			return
		}
	}
}

// IsExpired reports whether expiresAt is set and in the past. Expiry is
// computed; the stored status never becomes EXPIRED through this subsystem.
func (p *Permission) IsExpired() bool {
	return p.expiresAt != nil && p.expiresAt.Before(time.Now())
}

// CanBeUsed reports whether the permission grants anything right now: the
// stored status is ACTIVE and the permission has not expired.
func (p *Permission) CanBeUsed() bool {
	return p.status.IsActive() && !p.IsExpired()
}

func (p *Permission) ID() uuid.UUID          { return p.id }
func (p *Permission) TenantID() uuid.UUID    { return p.tenantID }
func (p *Permission) AdminUserID() uuid.UUID { return p.adminUserID }
func (p *Permission) Name() string           { return p.name }
func (p *Permission) Code() string           { return p.code }
func (p *Permission) Description() string    { return p.description }
func (p *Permission) Resource() string       { return p.resource }
func (p *Permission) Module() string         { return p.module }

func (p *Permission) OrganizationID() *uuid.UUID { return copyUUIDPtr(p.organizationID) }
func (p *Permission) Type() PermissionType       { return p.permType }
func (p *Permission) Action() PermissionAction   { return p.action }
func (p *Permission) Status() PermissionStatus   { return p.status }
func (p *Permission) ExpiresAt() *time.Time      { return copyTimePtr(p.expiresAt) }
func (p *Permission) CreatedAt() time.Time       { return p.createdAt }
func (p *Permission) UpdatedAt() time.Time       { return p.updatedAt }

// Conditions returns the current condition set, nil when none is attached.
func (p *Permission) Conditions() *ConditionSet { return p.conditions }

// HasConditions reports whether a non-empty condition set is attached.
func (p *Permission) HasConditions() bool {
	return p.conditions != nil && p.conditions.Count() > 0
}

// Predicate compiles the attached conditions, or returns the empty predicate
// that matches everything when none are attached.
func (p *Permission) Predicate() Predicate {
	if p.conditions == nil {
		return Predicate{}
	}
	return p.conditions.Predicate()
}

// Fields returns a copy of the field whitelist.
func (p *Permission) Fields() []string { return copyStrings(p.fields) }

// HasFields reports whether the whitelist is non-empty.
func (p *Permission) HasFields() bool { return len(p.fields) > 0 }

// HasField reports membership in the field whitelist.
func (p *Permission) HasField(field string) bool {
	for _, f := range p.fields {
		if f == field {
			return true
		}
	}
	return false
}

// RoleIDs returns a copy of the role membership set, in assignment order.
func (p *Permission) RoleIDs() []uuid.UUID { return copyUUIDs(p.roleIDs) }

// HasRole reports membership in the role set.
func (p *Permission) HasRole(roleID uuid.UUID) bool {
	for _, id := range p.roleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

func (p *Permission) ParentPermissionID() *uuid.UUID { return copyUUIDPtr(p.parentID) }

// ChildPermissionIDs returns a copy of the child pointers.
func (p *Permission) ChildPermissionIDs() []uuid.UUID { return copyUUIDs(p.childIDs) }

// DomainEvents returns a copy of the event buffer without clearing it.
func (p *Permission) DomainEvents() []Event {
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// PullDomainEvents drains and clears the event buffer. The persistence
// boundary calls this after a successful save; the aggregate never clears
// the buffer on its own.
func (p *Permission) PullDomainEvents() []Event {
	out := p.events
	p.events = nil
	return out
}

func (p *Permission) emit(ev Event) {
	p.events = append(p.events, ev)
}

func (p *Permission) eventBase() baseEvent {
	return baseEvent{permissionID: p.id, tenantID: p.tenantID, occurredAt: time.Now().UTC()}
}

func (p *Permission) touch() {
	p.updatedAt = time.Now().UTC()
}

func copyUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func copyUUIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}
