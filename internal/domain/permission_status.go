package domain

import "fmt"

// PermissionStatus is the stored lifecycle state of a permission.
//
// Expiry is a separate axis: PermissionStatusExpired exists as a stored
// classification, but no transition method in this package ever assigns it.
// Whether a permission is expired is computed from its expiresAt timestamp,
// so a permission can be ACTIVE and expired at the same time. CanBeUsed on
// the aggregate checks both axes.
type PermissionStatus string

const (
	PermissionStatusActive    PermissionStatus = "active"
	PermissionStatusInactive  PermissionStatus = "inactive"
	PermissionStatusSuspended PermissionStatus = "suspended"
	PermissionStatusExpired   PermissionStatus = "expired"
)

// ParsePermissionStatus converts a raw string into a PermissionStatus.
func ParsePermissionStatus(s string) (PermissionStatus, error) {
	st := PermissionStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown permission status %q", ErrValidation, s)
	}
	return st, nil
}

// PermissionStatuses returns all known statuses in declaration order.
func PermissionStatuses() []PermissionStatus {
	return []PermissionStatus{
		PermissionStatusActive,
		PermissionStatusInactive,
		PermissionStatusSuspended,
		PermissionStatusExpired,
	}
}

// IsValid reports whether the status is one of the known variants.
func (s PermissionStatus) IsValid() bool {
	switch s {
	case PermissionStatusActive, PermissionStatusInactive,
		PermissionStatusSuspended, PermissionStatusExpired:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable label for the status.
func (s PermissionStatus) DisplayName() string {
	switch s {
	case PermissionStatusActive:
		return "Active"
	case PermissionStatusInactive:
		return "Inactive"
	case PermissionStatusSuspended:
		return "Suspended"
	case PermissionStatusExpired:
		return "Expired"
	default:
		return string(s)
	}
}

// IsActive reports whether the stored status is ACTIVE.
func (s PermissionStatus) IsActive() bool {
	return s == PermissionStatusActive
}

// CanBeActivated is the guard for the activate transition: only INACTIVE and
// SUSPENDED permissions may be activated.
func (s PermissionStatus) CanBeActivated() bool {
	return s == PermissionStatusInactive || s == PermissionStatusSuspended
}

// CanBeSuspended is the guard for the suspend transition: only ACTIVE
// permissions may be suspended.
func (s PermissionStatus) CanBeSuspended() bool {
	return s == PermissionStatusActive
}

func (s PermissionStatus) String() string {
	return string(s)
}
